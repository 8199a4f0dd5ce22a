package session

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/otpauth/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStore(db), db
}

func TestOpen_CreatesSchema(t *testing.T) {
	_, db := newStore(t)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='metadata'`).Scan(&n))
	assert.Equal(t, 1, n)

	require.NoError(t, RunMigrations(context.Background(), db), "migrations must be idempotent")
}

func TestLoad_Empty(t *testing.T) {
	s, _ := newStore(t)

	sess, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	in := &models.Session{
		Token: "tok-1",
		User:  models.User{ID: "1", Username: "alice", Email: "a@x.com", Role: "employee"},
	}
	require.NoError(t, s.Save(ctx, in))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	in.Token = "tok-2"
	require.NoError(t, s.Save(ctx, in))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)

	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoad_CorruptUser(t *testing.T) {
	ctx := context.Background()
	s, db := newStore(t)

	_, err := db.Exec(`INSERT INTO metadata (key, value) VALUES ('token', 't'), ('user', '{')`)
	require.NoError(t, err)

	_, err = s.Load(ctx)
	assert.Error(t, err)
}
