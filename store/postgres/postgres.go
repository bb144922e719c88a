// Package postgres is a PostgreSQL [goAccount.AccountRepository] built on
// database/sql with the pgx driver. Schema changes ship as embedded goose
// migrations; call [RunMigrations] before first use.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/password"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

// DBTX is the subset of database/sql the repository needs. Both *sql.DB and
// *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db     DBTX
	hasher password.Hasher
	decoy  *password.Decoy
}

var _ goAccount.AccountRepository = (*Repository)(nil)

// New returns a repository over db. A nil hasher selects [password.NewDefault].
func New(db DBTX, hasher password.Hasher) *Repository {
	if hasher == nil {
		hasher = password.NewDefault()
	}
	return &Repository{db: db, hasher: hasher, decoy: password.NewDecoy(hasher)}
}

// Open connects to dsn with the pgx driver and pings it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const selectAccount = `SELECT id, email, password_hash, two_factor_enabled, email_confirmed, security_stamp
		 FROM accounts
		 `

func (r *Repository) scanOne(ctx context.Context, query string, arg any) (*goAccount.Account, error) {
	a := &goAccount.Account{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.TwoFactorEnabled, &a.EmailConfirmed, &a.SecurityStamp)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goAccount.ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *Repository) GetAccount(ctx context.Context, id int64) (*goAccount.Account, error) {
	return r.scanOne(ctx, selectAccount+`WHERE id = $1`, id)
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*goAccount.Account, error) {
	return r.scanOne(ctx, selectAccount+`WHERE normalized_email = $1`, normalizeEmail(email))
}

// GetAccountByEmailAndPassword returns ErrAccountNotFound for an unknown
// email and for a wrong password alike.
func (r *Repository) GetAccountByEmailAndPassword(ctx context.Context, email, pass string) (*goAccount.Account, error) {
	account, err := r.GetAccountByEmail(ctx, email)
	if errors.Is(err, goAccount.ErrAccountNotFound) {
		r.decoy.Verify(pass)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	ok, err := r.hasher.Verify(pass, account.PasswordHash)
	if err != nil || !ok {
		return nil, goAccount.ErrAccountNotFound
	}
	return account, nil
}

func (r *Repository) CreateAccount(ctx context.Context, email, pass string) (*goAccount.Account, error) {
	hash, err := r.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO accounts (email, normalized_email, password_hash, security_stamp)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	a := &goAccount.Account{
		Email:         strings.TrimSpace(email),
		PasswordHash:  hash,
		SecurityStamp: uuid.NewString(),
	}
	err = r.db.QueryRowContext(ctx, query, a.Email, normalizeEmail(email), a.PasswordHash, a.SecurityStamp).Scan(&a.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, goAccount.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// UpdateAccountEmailConfirmed leaves the security stamp unchanged.
func (r *Repository) UpdateAccountEmailConfirmed(ctx context.Context, id int64) (bool, error) {
	query :=
		`UPDATE accounts SET email_confirmed = TRUE, updated_at = now()
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id)
}

func (r *Repository) UpdateAccountPasswordHash(ctx context.Context, id int64, pass string) (bool, error) {
	hash, err := r.hasher.Hash(pass)
	if err != nil {
		return false, err
	}

	query :=
		`UPDATE accounts SET password_hash = $2, security_stamp = $3, updated_at = now()
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, hash, uuid.NewString())
}

func (r *Repository) UpdateAccountTwoFactorEnabled(ctx context.Context, id int64, enabled bool) (bool, error) {
	query :=
		`UPDATE accounts SET two_factor_enabled = $2, security_stamp = $3, updated_at = now()
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, enabled, uuid.NewString())
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
