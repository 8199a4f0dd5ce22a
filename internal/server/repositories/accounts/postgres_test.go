package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

var accountRowColumns = []string{"id", "username", "email", "password_hash", "role", "otp", "otp_expires_at", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+accounts\s*\(username,\s*email,\s*password_hash,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at,\s*updated_at$`

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q).
		WithArgs("alice", "alice@example.com", "hash", "employee").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("a-1", now, now))

	a := &models.Account{Username: "alice", Email: "alice@example.com", PasswordHash: "hash", Role: models.RoleEmployee}
	got, err := repo.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "a-1" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected account: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+accounts`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	_, err := repo.Create(context.Background(), &models.Account{Username: "alice", Email: "a@b.c", Role: models.RoleEmployee})
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+accounts`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Account{Username: "alice", Email: "a@b.c", Role: models.RoleEmployee})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1$`

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	exp := now.Add(5 * time.Minute)
	mock.ExpectQuery(q).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow("a-1", "alice", "alice@example.com", "hash", "manager", "123456", exp, now, now))

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.Role != models.RoleManager || got.OTP != "123456" || got.OTPExpiresAt == nil || !got.OTPExpiresAt.Equal(exp) {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestGetByEmail_NullOTP(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM\s+accounts\s+WHERE\s+email`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow("a-1", "alice", "alice@example.com", "hash", "employee", nil, nil, now, now))

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.OTP != "" || got.OTPExpiresAt != nil {
		t.Fatalf("expected no pending otp, got %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSetOTP(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Date(2025, 1, 1, 0, 5, 0, 0, time.UTC)
	q := `(?s)^UPDATE\s+accounts\s+SET\s+otp\s*=\s*\$2,\s*otp_expires_at\s*=\s*\$3.*WHERE\s+id\s*=\s*\$1$`

	mock.ExpectExec(q).
		WithArgs("a-1", "654321", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetOTP(context.Background(), "a-1", "654321", exp); err != nil {
		t.Fatalf("SetOTP error: %v", err)
	}

	mock.ExpectExec(q).
		WithArgs("a-2", "654321", exp).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetOTP(context.Background(), "a-2", "654321", exp); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestConsumeOTP(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC)
	q := `(?s)^UPDATE\s+accounts\s+SET\s+otp\s*=\s*NULL,\s*otp_expires_at\s*=\s*NULL.*WHERE\s+email\s*=\s*\$1\s+AND\s+otp\s*=\s*\$2\s+AND\s+otp_expires_at\s*>\s*\$3\s+RETURNING`

	mock.ExpectQuery(q).
		WithArgs("alice@example.com", "123456", now).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow("a-1", "alice", "alice@example.com", "hash", "employee", nil, nil, now, now))

	got, err := repo.ConsumeOTP(context.Background(), "alice@example.com", "123456", now)
	if err != nil {
		t.Fatalf("ConsumeOTP error: %v", err)
	}
	if got.ID != "a-1" || got.OTP != "" {
		t.Fatalf("unexpected account: %+v", got)
	}

	mock.ExpectQuery(q).
		WithArgs("alice@example.com", "000000", now).
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.ConsumeOTP(context.Background(), "alice@example.com", "000000", now); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestResetPassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC)
	q := `(?s)^UPDATE\s+accounts\s+SET\s+password_hash\s*=\s*\$4,\s*otp\s*=\s*NULL.*WHERE\s+email\s*=\s*\$1\s+AND\s+otp\s*=\s*\$2\s+AND\s+otp_expires_at\s*>\s*\$3`

	mock.ExpectQuery(q).
		WithArgs("alice@example.com", "123456", now, "newhash").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow("a-1", "alice", "alice@example.com", "newhash", "employee", nil, nil, now, now))

	got, err := repo.ResetPassword(context.Background(), "alice@example.com", "123456", now, "newhash")
	if err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}
	if got.PasswordHash != "newhash" {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestUpdatePasswordHash_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+accounts\s+SET\s+password_hash`).
		WithArgs("a-1", "h").
		WillReturnError(errors.New("db down"))

	err := repo.UpdatePasswordHash(context.Background(), "a-1", "h")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
