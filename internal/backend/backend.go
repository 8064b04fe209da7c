// Package backend builds the entity store selected by DATA_BACKEND.
package backend

import (
	"context"
	"fmt"

	"orgfees/internal/config"
	"orgfees/internal/docstore"
	"orgfees/internal/log"
	"orgfees/internal/storage"
	"orgfees/internal/store"
	"orgfees/internal/store/memory"
)

// Type names a storage backend.
type Type string

const (
	Memory Type = config.BackendMemory
	SQLite Type = config.BackendSQLite
	Mongo  Type = config.BackendMongo
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Mongo:
		return true
	default:
		return false
	}
}

// Types returns every supported backend.
func Types() []Type {
	return []Type{Memory, SQLite, Mongo}
}

// Config holds what the factory needs to open a backend.
type Config struct {
	Type          Type
	SQLiteDBPath  string
	MongoURI      string
	MongoDatabase string
}

// FromAppConfig extracts the backend settings from the application config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", cfg.DataBackend)
	}
	return Config{
		Type:          t,
		SQLiteDBPath:  cfg.SQLiteDBPath,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	}, nil
}

func (c Config) Validate() error {
	switch c.Type {
	case Memory:
	case SQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case Mongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("MongoDB URI and database are required for mongo backend")
		}
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// Open creates the configured store. Callers own the result and must Close it.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (store.EntityStore, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil
	case Mongo:
		st, err := docstore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("initialize MongoDB store: %w", err)
		}
		logger.InfoContext(ctx, "Initialized MongoDB backend", "database", cfg.MongoDatabase)
		return st, nil
	default:
		logger.WarnContext(ctx, "Initialized memory backend, data is lost on restart")
		return memory.New(), nil
	}
}
