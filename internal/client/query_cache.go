package client

import (
	"encoding/json"
	"net/url"
	"time"

	"orgfees/internal/cache"
)

// Entity names used as cache key prefixes.
const (
	entityTransaction  = "transaction"
	entityOrganization = "organization"
	entityCategory     = "category"
	entityStudent      = "student"
	entityUser         = "user"
)

// QueryCache holds raw response data keyed by entity type and query
// parameters. Entries live until TTL or until a mutation of a related entity
// invalidates them.
type QueryCache struct {
	entries cache.Cache[json.RawMessage]
}

func NewQueryCache(size int, ttl time.Duration) *QueryCache {
	return &QueryCache{entries: cache.NewLRUCache[json.RawMessage](size, ttl)}
}

// Key builds the cache key for entity and params. url.Values.Encode sorts by
// key, so equal filters give equal keys.
func Key(entity string, params url.Values) string {
	return entity + "|" + params.Encode()
}

func (q *QueryCache) Get(entity string, params url.Values) (json.RawMessage, bool) {
	return q.entries.Get(Key(entity, params))
}

func (q *QueryCache) Set(entity string, params url.Values, data json.RawMessage) {
	q.entries.Set(Key(entity, params), data)
}

// Invalidate drops every cached query for the given entities.
func (q *QueryCache) Invalidate(entities ...string) int {
	removed := 0
	for _, e := range entities {
		removed += q.entries.DeletePrefix(e + "|")
	}
	return removed
}

func (q *QueryCache) Clear() {
	q.entries.DeletePrefix("")
}

func (q *QueryCache) Len() int {
	return q.entries.Size()
}

// dependents lists which cached entities a mutation of entity makes stale.
// Category and student details embed transactions; transaction listings
// filter by student course.
func dependents(entity string) []string {
	switch entity {
	case entityTransaction:
		return []string{entityTransaction, entityCategory, entityStudent}
	case entityOrganization:
		return []string{entityOrganization, entityCategory}
	case entityCategory:
		return []string{entityCategory}
	case entityStudent:
		return []string{entityStudent, entityTransaction}
	default:
		return []string{entity}
	}
}
