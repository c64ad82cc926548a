package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/utils"
)

type fakeTokenCache struct {
	blacklisted map[string]bool
}

func (f *fakeTokenCache) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if f.blacklisted == nil {
		f.blacklisted = map[string]bool{}
	}
	f.blacklisted[jti] = true
	return nil
}
func (f *fakeTokenCache) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	return f.blacklisted[jti], nil
}
func (f *fakeTokenCache) Close() error { return nil }

func setupJWT(t *testing.T) {
	t.Helper()
	config.Set(&config.Config{JWT: config.JWTConfig{Secret: "mw-test-secret", TTLHours: 1}})
	t.Cleanup(func() { config.Set(nil) })
}

func runGuard(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, *utils.TokenClaims) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *utils.TokenClaims
	handler := mw(func(c echo.Context) error {
		seen, _ = ClaimsFromContext(c)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, seen
}

func TestAuthMiddlewarePassesValidToken(t *testing.T) {
	setupJWT(t)
	token, err := utils.GenerateToken(7, utils.RoleUser, "team-rocket")
	require.NoError(t, err)

	mw := New(&fakeTokenCache{})
	rec, claims := runGuard(t, mw.AuthMiddleware(), "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, int64(7), claims.SubjectID)
	assert.Equal(t, "team-rocket", claims.GroupName)
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	setupJWT(t)
	mw := New(&fakeTokenCache{})
	rec, _ := runGuard(t, mw.AuthMiddleware(), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	setupJWT(t)
	mw := New(&fakeTokenCache{})
	rec, _ := runGuard(t, mw.AuthMiddleware(), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	setupJWT(t)
	mw := New(&fakeTokenCache{})
	rec, _ := runGuard(t, mw.AuthMiddleware(), "Bearer not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminMiddlewareRejectsUserToken(t *testing.T) {
	setupJWT(t)
	token, err := utils.GenerateToken(7, utils.RoleUser, "team-rocket")
	require.NoError(t, err)

	mw := New(&fakeTokenCache{})
	rec, _ := runGuard(t, mw.AdminMiddleware(), "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	setupJWT(t)
	token, err := utils.GenerateToken(7, utils.RoleUser, "team-rocket")
	require.NoError(t, err)
	claims, err := utils.ValidateAndParseToken(token)
	require.NoError(t, err)

	cache := &fakeTokenCache{}
	require.NoError(t, cache.BlacklistToken(context.Background(), claims.ID, time.Hour))

	mw := New(cache)
	rec, _ := runGuard(t, mw.AuthMiddleware(), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
