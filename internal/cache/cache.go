package cache

// Cache is a string-keyed store of values of one type.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// DeletePrefix removes every key starting with prefix and reports how
	// many were removed.
	DeletePrefix(prefix string) int
	Size() int
}

var _ Cache[string] = (*LRUCache[string])(nil)
