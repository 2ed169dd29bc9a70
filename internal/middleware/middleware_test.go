package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/service"
	"github.com/yourusername/quiz-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// accountStore - минимальный AccountRepository для тестов middleware
type accountStore struct {
	accounts map[string]*entity.Account
}

func (s *accountStore) Create(ctx context.Context, a *entity.Account) error { return nil }
func (s *accountStore) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	if a, ok := s.accounts[id]; ok {
		return a, nil
	}
	return nil, apperrors.ErrNotFound
}
func (s *accountStore) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return nil, apperrors.ErrNotFound
}
func (s *accountStore) GetByExternalID(ctx context.Context, externalID string) (*entity.Account, error) {
	return nil, apperrors.ErrNotFound
}
func (s *accountStore) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return nil
}
func (s *accountStore) LinkExternalID(ctx context.Context, id, externalID string) error { return nil }
func (s *accountStore) List(ctx context.Context, limit, offset int) ([]entity.Account, int64, error) {
	return nil, 0, nil
}
func (s *accountStore) CountActive(ctx context.Context) (int64, error)          { return 0, nil }
func (s *accountStore) DeleteWithAttempts(ctx context.Context, id string) error { return nil }

type authFixture struct {
	router *gin.Engine
	jwt    *auth.JWTService
	users  map[string]*entity.Account
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	jwtService, err := auth.NewJWTService("test-secret-that-is-long-enough-123", "quiz-api", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	users := map[string]*entity.Account{
		"user":     {ID: "user", Email: "user@example.com", IsActive: true},
		"admin":    {ID: "admin", Email: "admin@example.com", IsActive: true, IsAdmin: true},
		"inactive": {ID: "inactive", Email: "off@example.com", IsActive: false},
	}
	gate := service.NewAccessGate(jwtService, &accountStore{accounts: users})
	m := NewAuthMiddleware(gate)

	r := gin.New()
	r.GET("/optional", m.OptionalAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, GetIdentity(c).Tier().String())
	})
	r.GET("/private", m.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, GetIdentity(c).Account.ID)
	})
	r.GET("/admin", m.RequireAuth(), m.AdminOnly(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return &authFixture{router: r, jwt: jwtService, users: users}
}

func (f *authFixture) tokens(t *testing.T, id string) *auth.TokenPair {
	t.Helper()
	pair, err := f.jwt.IssuePair(f.users[id])
	require.NoError(t, err)
	return pair
}

func (f *authFixture) do(path, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Tiers(t *testing.T) {
	f := newAuthFixture(t)
	user := "Bearer " + f.tokens(t, "user").AccessToken
	admin := "Bearer " + f.tokens(t, "admin").AccessToken
	inactive := "Bearer " + f.tokens(t, "inactive").AccessToken
	refresh := "Bearer " + f.tokens(t, "user").RefreshToken

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"optional anonymous", "/optional", "", http.StatusOK, "anonymous"},
		{"optional garbage token", "/optional", "Bearer garbage", http.StatusOK, "anonymous"},
		{"optional user", "/optional", user, http.StatusOK, "authenticated"},
		{"optional admin", "/optional", admin, http.StatusOK, "admin"},
		{"private without token", "/private", "", http.StatusUnauthorized, "unauthorized"},
		{"private bad format", "/private", "Token abc", http.StatusUnauthorized, "unauthorized"},
		{"private invalid token", "/private", "Bearer garbage", http.StatusUnauthorized, "invalid_token"},
		{"private refresh token", "/private", refresh, http.StatusUnauthorized, "wrong_token_type"},
		{"private inactive", "/private", inactive, http.StatusBadRequest, "account_inactive"},
		{"private user", "/private", user, http.StatusOK, "user"},
		{"admin as user", "/admin", user, http.StatusForbidden, "forbidden"},
		{"admin as admin", "/admin", admin, http.StatusOK, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(tt.path, tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestAuthMiddleware_DeletedAccount(t *testing.T) {
	f := newAuthFixture(t)
	token := "Bearer " + f.tokens(t, "user").AccessToken
	delete(f.users, "user")

	w := f.do("/private", token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMemoryStore_SlidingWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := store.Allow(ctx, "ip", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
		now = now.Add(10 * time.Second)
	}

	d, err := store.Allow(ctx, "ip", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	// первая метка выходит из окна
	now = now.Add(31 * time.Second)
	d, err = store.Allow(ctx, "ip", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = store.Allow(ctx, "other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "ключи считаются независимо")
}

func TestMemoryStore_EvictIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore(func() time.Time { return now })
	_, _ = store.Allow(context.Background(), "a", 5, time.Minute)
	now = now.Add(5 * time.Minute)
	_, _ = store.Allow(context.Background(), "b", 5, time.Minute)

	assert.Equal(t, 1, store.evictIdle(time.Minute))
	assert.Equal(t, 0, store.evictIdle(time.Minute))
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := newMemoryStore(time.Now)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := store.Allow(context.Background(), "shared", 20, time.Minute)
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, allowed)
}

type fakeCounter struct {
	count int64
	err   error
}

func (f *fakeCounter) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.count++
	return f.count, 42 * time.Second, nil
}

func TestRedisStore(t *testing.T) {
	store := NewRedisStore(&fakeCounter{})

	d, err := store.Allow(context.Background(), "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	_, _ = store.Allow(context.Background(), "k", 2, time.Minute)
	d, err = store.Allow(context.Background(), "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 42*time.Second, d.RetryAfter)
}

func limitedRouter(store RateLimitStore, max int) *gin.Engine {
	r := gin.New()
	r.Use(NewRateLimiter(store).Limit(RateLimitConfig{MaxRequests: max, Window: time.Minute, KeyPrefix: "rl:test"}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestRateLimiter_Returns429(t *testing.T) {
	r := limitedRouter(newMemoryStore(time.Now), 2)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/", nil))
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "rate_limited")
}

func TestRateLimiter_FailOpen(t *testing.T) {
	r := limitedRouter(NewRedisStore(&fakeCounter{err: errors.New("redis down")}), 1)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), RequestMetrics())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
}

func TestExtractUintParam(t *testing.T) {
	r := gin.New()
	r.GET("/q/:id", ExtractUintParam("id", "questionID"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.MustGet("questionID").(uint)})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/q/12", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":12}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/q/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
