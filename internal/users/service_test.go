package users_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchid-portal/orchid/internal/shared"
	"github.com/orchid-portal/orchid/internal/users"
)

// fakeRepo mimics the store, including its unique constraint on email.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*users.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, rows: make(map[int64]*users.User)}
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeRepo) FindByID(ctx context.Context, id int64) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeRepo) Create(ctx context.Context, name, email, passwordHash string) (*users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			return nil, shared.ErrEmailTaken
		}
	}
	now := time.Now().UTC()
	user := &users.User{ID: f.nextID, Name: name, Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	f.rows[f.nextID] = user
	f.nextID++
	clone := *user
	return &clone, nil
}

func (f *fakeRepo) UpdateProfile(ctx context.Context, id int64, name, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for otherID, u := range f.rows {
		if u.Email == email && otherID != id {
			return shared.ErrEmailTaken
		}
	}
	u, ok := f.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Name = name
	u.Email = email
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

var _ users.Repository = (*fakeRepo)(nil)

func seedUser(t *testing.T, repo *fakeRepo, name, email, password string) *users.User {
	t.Helper()
	hash, err := users.HashPassword(password)
	require.NoError(t, err)
	user, err := repo.Create(context.Background(), name, email, hash)
	require.NoError(t, err)
	return user
}

func TestRegisterSuccess(t *testing.T) {
	repo := newFakeRepo()
	service := users.NewService(repo)

	user, err := service.Register(context.Background(), "Alice", "alice@example.com", "longenough1", "longenough1")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.count())
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "longenough1", user.PasswordHash)
	assert.True(t, users.VerifyPassword("longenough1", user.PasswordHash))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeRepo()
	service := users.NewService(repo)
	seedUser(t, repo, "Alice", "alice@example.com", "longenough1")

	_, err := service.Register(context.Background(), "Bob", "alice@example.com", "longenough2", "longenough2")
	assert.ErrorIs(t, err, shared.ErrEmailTaken)
	assert.Equal(t, 1, repo.count(), "no new row on conflict")
}

func TestRegisterErrorPrecedence(t *testing.T) {
	// Everything about this submission is wrong; the malformed email must
	// win because no account holds it yet.
	repo := newFakeRepo()
	service := users.NewService(repo)

	_, err := service.Register(context.Background(), "Al", "bad", "short", "nope")
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "This email does not exist", verr.Message)
	assert.Equal(t, 0, repo.count())

	// With a valid email the password check is reported before the name.
	_, err = service.Register(context.Background(), "Al", "al@example.com", "short", "nope")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Password is too short", verr.Message)

	_, err = service.Register(context.Background(), "Al", "al@example.com", "longenough1", "longenough1")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Name is too short", verr.Message)

	// A taken email outranks every validation failure.
	seedUser(t, repo, "Alice", "alice@example.com", "longenough1")
	_, err = service.Register(context.Background(), "Al", "alice@example.com", "short", "nope")
	assert.ErrorIs(t, err, shared.ErrEmailTaken)
}

func TestStoreRejectsRacingDuplicate(t *testing.T) {
	// Two registrations can both pass the pre-check before either inserts;
	// the store's unique constraint must reject the second insert.
	repo := newFakeRepo()
	hash, err := users.HashPassword("longenough1")
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), "Alice", "race@example.com", hash)
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), "Bob", "race@example.com", hash)
	assert.ErrorIs(t, err, shared.ErrEmailTaken)
	assert.Equal(t, 1, repo.count())
}

func TestUpdateProfile(t *testing.T) {
	repo := newFakeRepo()
	service := users.NewService(repo)
	alice := seedUser(t, repo, "Alice", "alice@example.com", "longenough1")
	seedUser(t, repo, "Bob", "bob@example.com", "longenough1")

	// Keeping your own email is not a conflict.
	require.NoError(t, service.UpdateProfile(context.Background(), alice.ID, "Alicia", "alice@example.com"))
	updated, err := repo.FindByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Name)

	// Claiming someone else's email is.
	err = service.UpdateProfile(context.Background(), alice.ID, "Alicia", "bob@example.com")
	assert.ErrorIs(t, err, shared.ErrEmailTaken)

	var verr *shared.ValidationError
	err = service.UpdateProfile(context.Background(), alice.ID, "Alicia", "not-an-email")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "This email does not exist", verr.Message)

	err = service.UpdateProfile(context.Background(), alice.ID, "Al", "alicia@example.com")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Name is too short", verr.Message)
}

func TestChangePassword(t *testing.T) {
	repo := newFakeRepo()
	service := users.NewService(repo)
	alice := seedUser(t, repo, "Alice", "alice@example.com", "longenough1")

	var verr *shared.ValidationError
	err := service.ChangePassword(context.Background(), alice.ID, "short", "short")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Password is too short", verr.Message)

	err = service.ChangePassword(context.Background(), alice.ID, "newpassword1", "different1x")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Passwords do not match", verr.Message)

	require.NoError(t, service.ChangePassword(context.Background(), alice.ID, "newpassword1", "newpassword1"))
	updated, err := repo.FindByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.True(t, users.VerifyPassword("newpassword1", updated.PasswordHash))
	assert.False(t, users.VerifyPassword("longenough1", updated.PasswordHash))
}
