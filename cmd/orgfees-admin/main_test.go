package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgfees/internal/config"
	"orgfees/internal/log"
	"orgfees/internal/store"
	"orgfees/internal/store/memory"
)

func run(t *testing.T, st *memory.Store, stdin string, args ...string) (string, error) {
	t.Helper()
	open := func(context.Context, *config.Config, *log.Logger) (store.EntityStore, error) { return st, nil }
	root := newRootCmd(open)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserCreate(t *testing.T) {
	st := memory.New()

	out, err := run(t, st, "", "user", "create", "--email", "Treasurer@Example.org", "--password", "long-enough", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin user treasurer@example.org")

	u, err := st.GetUserByEmail(context.Background(), "treasurer@example.org")
	require.NoError(t, err)
	assert.NotEqual(t, "long-enough", u.PasswordHash)

	_, err = run(t, st, "", "user", "create", "--email", "treasurer@example.org", "--password", "long-enough")
	assert.ErrorContains(t, err, "user not created")
}

func TestUserCreate_PasswordFromStdin(t *testing.T) {
	st := memory.New()

	out, err := run(t, st, "from-stdin-pw\n", "user", "create", "--email", "staff@example.org")
	require.NoError(t, err)
	assert.Contains(t, out, "created staff user")
}

func TestUserCreate_Rejections(t *testing.T) {
	st := memory.New()

	_, err := run(t, st, "", "user", "create", "--email", "staff@example.org", "--password", "short")
	assert.ErrorContains(t, err, "user not created")

	_, err = run(t, st, "", "user", "create", "--email", "staff@example.org", "--password", "long-enough", "--role", "owner")
	assert.ErrorContains(t, err, "user not created")

	_, err = run(t, st, "", "user", "create", "--password", "long-enough")
	assert.Error(t, err, "email flag is required")
}

func TestMigrate(t *testing.T) {
	t.Setenv("DATA_BACKEND", config.BackendSQLite)
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "fees.db"))

	out, err := run(t, memory.New(), "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "dirty: false")
	assert.Contains(t, out, "schema version 1")

	out, err = run(t, memory.New(), "", "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version")
}

func TestMigrate_RequiresSQLite(t *testing.T) {
	t.Setenv("DATA_BACKEND", config.BackendMemory)

	_, err := run(t, memory.New(), "", "migrate")
	assert.ErrorContains(t, err, "sqlite backend")
}

func TestConfigCheck(t *testing.T) {
	t.Setenv("DATA_BACKEND", config.BackendMemory)
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	out, err := run(t, memory.New(), "", "config", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration ok")

	t.Setenv("JWT_SECRET", "short")
	_, err = run(t, memory.New(), "", "config", "check")
	assert.ErrorContains(t, err, "JWT_SECRET")
}
