package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingExecer struct {
	statements []string
	failOn     string
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if r.failOn != "" && sql == r.failOn {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	r.statements = append(r.statements, sql)
	return pgconn.CommandTag{}, nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestApplyMigrations_LexicalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_shifts.sql", "CREATE TABLE b();")
	writeFile(t, dir, "0001_tickets.sql", "CREATE TABLE a();")
	writeFile(t, dir, "README.md", "not sql")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	db := &recordingExecer{}
	require.NoError(t, applyMigrations(context.Background(), db, dir, zap.NewNop()))
	assert.Equal(t, []string{"CREATE TABLE a();", "CREATE TABLE b();"}, db.statements)
}

func TestApplyMigrations_Errors(t *testing.T) {
	err := applyMigrations(context.Background(), &recordingExecer{}, filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	assert.ErrorContains(t, err, "read migrations")

	dir := t.TempDir()
	writeFile(t, dir, "0001_bad.sql", "CREATE TABLE;")
	err = applyMigrations(context.Background(), &recordingExecer{failOn: "CREATE TABLE;"}, dir, zap.NewNop())
	assert.ErrorContains(t, err, "apply migration 0001_bad.sql")
}

func TestRunMigrations_NoPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, "", zap.NewNop()))
}

func TestUnconfiguredStores(t *testing.T) {
	var pg *Postgres
	assert.Error(t, pg.Ping(context.Background()))
	assert.Nil(t, pg.PoolHandle())

	r := &Redis{}
	assert.Error(t, r.Ping(context.Background()))
	assert.Nil(t, r.Handle())
}
