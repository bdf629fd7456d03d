// Package service provides business logic for accounts and the document
// pipeline, delegating persistence, staging and generation to interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/StudyNotes/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// CreateAccount stores a new account. It returns an error wrapping
	// models.ErrConflict if the email or username is taken.
	CreateAccount(ctx context.Context, acc models.Account) error
	// GetAccountByLogin looks an account up by email or username.
	// It returns an error wrapping models.ErrNotFound if none matches.
	GetAccountByLogin(ctx context.Context, login string) (*models.Account, error)
}

// Service implements authentication operations by delegating
// to an AuthRepository.
type Service struct {
	// repo performs the data-layer operations.
	repo AuthRepository
	// cost is the bcrypt work factor.
	cost int
}

// NewAuthService constructs a new Service using the provided repository.
// repo must implement AuthRepository.
func NewAuthService(repo AuthRepository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// CreateAccount hashes password and stores a new account.
// Empty fields yield models.ErrInvalidInput; duplicates models.ErrConflict.
func (s *Service) CreateAccount(ctx context.Context, email, username, password string) error {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return fmt.Errorf("%w: email, username and password are required", models.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.CreateAccount(ctx, models.Account{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
}

// Authenticate verifies password for the account identified by login
// (email or username) and returns its public fields.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*models.Account, error) {
	acc, err := s.repo.GetAccountByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return &models.Account{Email: acc.Email, Username: acc.Username}, nil
}
