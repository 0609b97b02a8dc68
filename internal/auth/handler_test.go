package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchid-portal/orchid/internal/auth"
	"github.com/orchid-portal/orchid/internal/shared"
	"github.com/orchid-portal/orchid/internal/users"
	"github.com/orchid-portal/orchid/internal/view"
	_ "github.com/orchid-portal/orchid/testing"
)

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := shared.NewRedisStore(redisClient)
	sessionManager := shared.NewSessionManager(store, "test_session", "secret", time.Hour, false)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), templates, sessionManager, view.Site{Name: "Orchid"})
	return handler, sessionManager
}

func seededRepo(t *testing.T, password string) *stubRepo {
	t.Helper()
	hash, err := users.HashPassword(password)
	require.NoError(t, err)
	return &stubRepo{user: &users.User{ID: 1, Name: "Alice", Email: "user@test.local", PasswordHash: hash}}
}

func TestLoginPage(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	sess, err := sessionManager.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<form")
}

func TestLoginInvalidCredentials(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, seededRepo(t, "correctpass"))

	postData := url.Values{}
	postData.Set("email", "user@test.local")
	postData.Set("password", "wrongpass")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(postData.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ctx := context.Background()
	sess, err := sessionManager.Load(ctx, req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)
	require.NoError(t, sessionManager.Commit(ctx, res, req, sess))

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))
	assert.Empty(t, sess.User())

	// The failure message travels as a flash consumed on the next render.
	next := httptest.NewRequest(http.MethodGet, "/login", nil)
	next.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	reloaded, err := sessionManager.Load(ctx, next)
	require.NoError(t, err)
	flash := reloaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Email or password incorrect", flash.Message)
}

func TestLoginSuccess(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, seededRepo(t, "correctpass"))

	postData := url.Values{}
	postData.Set("email", "user@test.local")
	postData.Set("password", "correctpass")

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(postData.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ctx := context.Background()
	sess, err := sessionManager.Load(ctx, req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)
	require.NoError(t, sessionManager.Commit(ctx, res, req, sess))

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
	assert.Equal(t, "1", sess.User())

	// The principal survives a fresh request carrying the cookie.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	reloaded, err := sessionManager.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "1", reloaded.User())
}

func TestLogout(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, seededRepo(t, "correctpass"))

	ctx := context.Background()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	sess, err := sessionManager.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("1")

	// Persist before logging out so there is a record to destroy.
	seed := httptest.NewRecorder()
	require.NoError(t, sessionManager.Commit(ctx, seed, req, sess))

	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	handler.HandleLogoutForTest(res, req)
	require.NoError(t, sessionManager.Commit(ctx, res, req, sess))

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: sessionManager.CookieName(), Value: sess.ID})
	reloaded, err := sessionManager.Load(ctx, next)
	require.NoError(t, err)
	assert.Empty(t, reloaded.User(), "destroyed session reads as anonymous")
}
