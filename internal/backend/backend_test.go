package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgfees/internal/config"
	"orgfees/internal/storage"
	"orgfees/internal/store/memory"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "data/fees.db"})
	require.NoError(t, err)
	assert.Equal(t, SQLite, cfg.Type)
	assert.Equal(t, "data/fees.db", cfg.SQLiteDBPath)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{Type: Memory}.Validate())
	assert.Error(t, Config{Type: SQLite}.Validate())
	assert.Error(t, Config{Type: Mongo, MongoURI: "mongodb://localhost"}.Validate())
	assert.Error(t, Config{Type: "postgres"}.Validate())
}

func TestOpen_Memory(t *testing.T) {
	st, err := Open(context.Background(), Config{Type: Memory}, nil)
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &memory.Store{}, st)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fees.db")

	st, err := Open(context.Background(), Config{Type: SQLite, SQLiteDBPath: path}, nil)
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &storage.SQLiteRepository{}, st)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestTypes(t *testing.T) {
	for _, typ := range Types() {
		assert.True(t, typ.IsValid(), typ.String())
	}
}
