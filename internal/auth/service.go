package auth

import (
	"context"

	"github.com/orchid-portal/orchid/internal/shared"
	"github.com/orchid-portal/orchid/internal/users"
)

// Repository is the slice of the user store the login flow needs.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
}

// Service wraps credential verification.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Every failure mode
// collapses to ErrInvalidCredentials so callers cannot probe for accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !users.VerifyPassword(password, user.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}
