// Package repository provides PostgreSQL persistence for users, sessions,
// assets and portfolios.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/avolkov/cryptofolio/internal/models"
)

// uniqueViolation is the Postgres error code for unique-key collisions.
const uniqueViolation = "23505"

// PostgresAuthRepository implements user and session persistence using a
// PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the
// given database connection.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// CreateUser inserts a new user row. Returns models.ErrEmailTaken if the
// email is already registered.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, email, password string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (email, password) VALUES ($1, $2)`,
		email, password,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return models.ErrEmailTaken
	}
	return err
}

// CredentialsValid reports whether a user with the exact email/password
// pair exists.
func (r *PostgresAuthRepository) CredentialsValid(ctx context.Context, email, password string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND password = $2)`,
		email, password,
	).Scan(&exists)
	return exists, err
}

// IsWhitelisted reports whether the email is eligible for the elevated role.
func (r *PostgresAuthRepository) IsWhitelisted(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM whitelist WHERE email = $1)`,
		email,
	).Scan(&exists)
	return exists, err
}

// ReplaceToken deletes any existing tokens for the owner and inserts the
// new one, as a single transaction. This is the rotation step of login:
// at most one live token per owner.
func (r *PostgresAuthRepository) ReplaceToken(ctx context.Context, token, owner string, role models.Role) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM token WHERE owner = $1`, owner); err != nil {
		return fmt.Errorf("delete old token: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO token (token, owner, role) VALUES ($1, $2, $3)`,
		token, owner, string(role),
	); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetSession fetches the session row for a token value. Returns
// models.ErrInvalidToken if no such token exists.
func (r *PostgresAuthRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	var role string
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT token, owner, role, created_at FROM token WHERE token = $1`,
		token,
	).Scan(&s.Token, &s.Owner, &role, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	s.Role = models.Role(role)
	return &s, nil
}

// DeleteToken removes a token by value. Returns models.ErrInvalidToken
// if no row was deleted, so a second logout with the same token fails
// cleanly instead of succeeding silently.
func (r *PostgresAuthRepository) DeleteToken(ctx context.Context, token string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM token WHERE token = $1`, token)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrInvalidToken
	}
	return nil
}

// DeleteTokensOlderThan removes every token created before the cutoff and
// returns how many were removed.
func (r *PostgresAuthRepository) DeleteTokensOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM token WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return res.RowsAffected()
}
