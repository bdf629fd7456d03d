// Package repository provides persistence implementations for authentication services.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/StudyNotes/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// PostgresAuthRepository implements account persistence using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// CreateAccount inserts a new account inside a transaction.
// A duplicate email or username rolls the transaction back and
// returns an error wrapping models.ErrConflict.
func (s *PostgresAuthRepository) CreateAccount(ctx context.Context, acc models.Account) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO authentication (email, username, password) VALUES ($1, $2, $3)`,
		acc.Email, acc.Username, string(acc.PasswordHash),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: email or username already exists", models.ErrConflict)
		}
		return fmt.Errorf("insert account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetAccountByLogin fetches the account whose email or username equals login.
// It returns an error wrapping models.ErrNotFound when no row matches.
func (s *PostgresAuthRepository) GetAccountByLogin(ctx context.Context, login string) (*models.Account, error) {
	var (
		acc  models.Account
		hash string
	)
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT email, username, password FROM authentication WHERE email = $1 OR username = $1`,
		login,
	).Scan(&acc.Email, &acc.Username, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %q: %w", login, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetAccountByLogin: %w", err)
	}
	acc.PasswordHash = []byte(hash)
	return &acc, nil
}
