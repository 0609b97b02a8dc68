package users

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchid-portal/orchid/internal/shared"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at FROM users WHERE email = $1`, email)
	return scanUser(row, "find user by email")
}

// FindByID fetches a user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at FROM users WHERE id = $1`, id)
	return scanUser(row, "find user by id")
}

// Create inserts a new account. The unique constraint on email is the
// authoritative duplicate guard; a racing insert surfaces as ErrEmailTaken.
func (r *PGRepository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		name, email, passwordHash, now)
	var id int64
	if err := row.Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return nil, shared.ErrEmailTaken
		}
		return nil, &shared.StoreError{Op: "create user", Err: err}
	}
	return &User{ID: id, Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}, nil
}

// UpdateProfile changes name and email. The id is bound, never interpolated.
func (r *PGRepository) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $1, email = $2, updated_at = now() WHERE id = $3`, name, email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrEmailTaken
		}
		return &shared.StoreError{Op: "update profile", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return &shared.StoreError{Op: "update password", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row, op string) (*User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, &shared.StoreError{Op: op, Err: err}
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
