package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/pkg/testsupport"
	"github.com/goliatone/go-datamapper/store/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// craftingDB writes the crafting fixture to a SQLite file and returns its DSN.
func craftingDB(t *testing.T) string {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "crafting.db")
	st, err := sqlstore.Open(sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	testsupport.ExecFile(t, st.DB().DB, filepath.Join("..", "..", "crafting", "testdata", "crafting.sql"))
	require.NoError(t, st.Close())
	return dsn
}

func setEnv(t *testing.T, dsn string) {
	t.Helper()
	t.Setenv("STORE_DSN", dsn)
	t.Setenv("CACHE_BACKENDS", "local")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	argv := append([]string{"datamapper", "--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...)
	err := newApp(&out).Run(context.Background(), argv)
	return out.String(), err
}

func TestDescribe(t *testing.T) {
	setEnv(t, craftingDB(t))

	out, err := run(t, "describe", "World")
	require.NoError(t, err)
	assert.Contains(t, out, "ID\t")
	assert.Contains(t, out, "Datacenter\t")
	assert.Contains(t, out, "unique")

	_, err = run(t, "describe")
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	setEnv(t, craftingDB(t))

	out, err := run(t, "get", "Category", "Name", "Seasonal")
	require.NoError(t, err)

	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &row))
	assert.Equal(t, float64(8), row["ID"])
	assert.Equal(t, "Seasonal", row["Name"])

	out, err = run(t, "--no-cache", "get", "Category", "ID", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `"quality"`)

	_, err = run(t, "get", "Category", "Name", "Unknown")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestList(t *testing.T) {
	setEnv(t, craftingDB(t))

	out, err := run(t, "list", "World", "Datacenter", "1")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Cerberus", rows[0]["Name"])

	out, err = run(t, "list", "Weather")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 3)

	_, err = run(t, "list", "World", "Datacenter")
	assert.Error(t, err)
}

func TestCacheBackend(t *testing.T) {
	setEnv(t, craftingDB(t))

	out, err := run(t, "cache", "backend")
	require.NoError(t, err)
	assert.Equal(t, "local\n", out)

	out, err = run(t, "cache", "keys")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEnvFile(t *testing.T) {
	dsn := craftingDB(t)
	t.Setenv("CACHE_BACKENDS", "local")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("STORE_DSN", "")
	require.NoError(t, os.Unsetenv("STORE_DSN"))

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORE_DSN="+dsn+"\n"), 0o600))

	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(), []string{"datamapper", "--env-file", envFile, "get", "Weather", "ID", "7"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"Rain"`)
}
