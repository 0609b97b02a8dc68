package users

import (
	"context"
	"errors"

	"github.com/orchid-portal/orchid/internal/shared"
	"github.com/orchid-portal/orchid/internal/validate"
)

// Service wraps account business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new account. Failures come back in a fixed precedence:
// a taken email beats a malformed one, which beats password and name
// problems. The duplicate pre-check is a fast path only; the store's unique
// constraint is the guarantee.
func (s *Service) Register(ctx context.Context, name, email, password, confirm string) (*User, error) {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, shared.ErrEmailTaken
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if msg := validate.Email(email); msg != "" {
		return nil, &shared.ValidationError{Message: msg}
	}
	if msg := validate.Password(password, confirm); msg != "" {
		return nil, &shared.ValidationError{Message: msg}
	}
	if msg := validate.Name(name); msg != "" {
		return nil, &shared.ValidationError{Message: msg}
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, name, email, hashed)
}

// FindByID hydrates the session principal.
func (s *Service) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile changes name and email. The duplicate check skips the
// caller's own row.
func (s *Service) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	if existing, err := s.repo.FindByEmail(ctx, email); err == nil {
		if existing.ID != id {
			return shared.ErrEmailTaken
		}
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if msg := validate.Email(email); msg != "" {
		return &shared.ValidationError{Message: msg}
	}
	if msg := validate.Name(name); msg != "" {
		return &shared.ValidationError{Message: msg}
	}
	return s.repo.UpdateProfile(ctx, id, name, email)
}

// ChangePassword validates and stores a new password hash.
func (s *Service) ChangePassword(ctx context.Context, id int64, password, confirm string) error {
	if msg := validate.Password(password, confirm); msg != "" {
		return &shared.ValidationError{Message: msg}
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hashed)
}
