package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/otpauth/internal/client/migrations"
	"github.com/dmitrijs2005/otpauth/internal/client/models"
	"github.com/dmitrijs2005/otpauth/internal/dbx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// SQLiteStore keeps the session as two rows of a key/value metadata table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the SQLite file at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess *models.Session) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, keyToken, []byte(sess.Token)); err != nil {
			return err
		}
		return set(ctx, tx, keyUser, user)
	})
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.Session, error) {
	token, err := get(ctx, s.db, keyToken)
	if err != nil || token == nil {
		return nil, err
	}

	sess := &models.Session{Token: string(token)}

	user, err := get(ctx, s.db, keyUser)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if err := json.Unmarshal(user, &sess.User); err != nil {
			return nil, fmt.Errorf("failed to decode stored user: %w", err)
		}
	}
	return sess, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE key IN (?, ?)`, keyToken, keyUser)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}
