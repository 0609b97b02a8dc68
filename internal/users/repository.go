package users

import "context"

// Repository defines persistence operations for user accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*User, error)
	UpdateProfile(ctx context.Context, id int64, name, email string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
