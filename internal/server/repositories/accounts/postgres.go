package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/dbx"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const accountColumns = `id, username, email, password_hash, role, otp, otp_expires_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (username, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		account.Username, account.Email, account.PasswordHash, string(account.Role)).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.queryOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *PostgresRepository) SetOTP(ctx context.Context, id string, code string, expiresAt time.Time) error {
	query :=
		`UPDATE accounts SET otp = $2, otp_expires_at = $3, updated_at = now()
		 WHERE id = $1`

	return r.execOne(ctx, query, id, code, expiresAt)
}

func (r *PostgresRepository) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*models.Account, error) {
	query :=
		`UPDATE accounts SET otp = NULL, otp_expires_at = NULL, updated_at = now()
		 WHERE email = $1 AND otp = $2 AND otp_expires_at > $3
		 RETURNING ` + accountColumns

	return r.queryOne(ctx, query, email, code, now)
}

func (r *PostgresRepository) ResetPassword(ctx context.Context, email, code string, now time.Time, passwordHash string) (*models.Account, error) {
	query :=
		`UPDATE accounts SET password_hash = $4, otp = NULL, otp_expires_at = NULL, updated_at = now()
		 WHERE email = $1 AND otp = $2 AND otp_expires_at > $3
		 RETURNING ` + accountColumns

	return r.queryOne(ctx, query, email, code, now, passwordHash)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	query :=
		`UPDATE accounts SET password_hash = $2, updated_at = now()
		 WHERE id = $1`

	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	var (
		a       models.Account
		role    string
		otp     sql.NullString
		expires sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &role, &otp, &expires, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.Role = models.Role(role)
	if otp.Valid && expires.Valid {
		a.OTP = otp.String
		exp := expires.Time
		a.OTPExpiresAt = &exp
	}
	return &a, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
