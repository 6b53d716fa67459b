package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andregamma/cinema-saas/internal/config"
	"github.com/andregamma/cinema-saas/internal/utils"
)

const secret = "test-secret"

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func whoami(c echo.Context) error {
	id, _ := UserID(c)
	return c.JSON(http.StatusOK, echo.Map{"id": id.String(), "role": c.Get(CtxRole)})
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))
	e.GET("/admin", whoami, JWTAuth(secret), RequireRole(utils.RoleAdmin))

	user := uuid.New()
	tok, err := utils.NewAccessToken(secret, user, utils.RoleCustomer, time.Hour)
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
		rec := serve(e, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), user.String())
	})

	t.Run("session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: AuthCookie, Value: tok.Token})
		assert.Equal(t, http.StatusOK, serve(e, req).Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := utils.NewAccessToken("other", user, utils.RoleCustomer, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+other.Token)
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})

	t.Run("expired", func(t *testing.T) {
		old, err := utils.NewAccessToken(secret, user, utils.RoleCustomer, -time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+old.Token)
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})

	t.Run("subject is not a uuid", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "42", "role": utils.RoleCustomer, "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(secret))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+raw)
		assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
	})

	t.Run("role mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
		assert.Equal(t, http.StatusForbidden, serve(e, req).Code)
	})
}

func TestDisabledRedisMiddlewarePassThrough(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	cache := NewResponseCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, log)
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, log),
		cache.Middleware())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, cache.Evict(context.Background(), "/x"))
}

func TestCacheKeysGroupVariantsByPath(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Prefix: "cache"}, nil, nil)
	assert.Equal(t, "cache:/v1/screens/a/seats", rc.pathKey("/v1/screens/a/seats"))
	assert.NotEqual(t, rc.pathKey("/v1/screens/a/seats"), rc.pathKey("/v1/screens/b/seats"))

	plain := httptest.NewRequest(http.MethodGet, "/v1/screens/a/seats", nil)
	query := httptest.NewRequest(http.MethodGet, "/v1/screens/a/seats?x=1", nil)
	assert.NotEqual(t, variant(plain), variant(query))
	assert.Equal(t, rc.pathKey(plain.URL.Path), rc.pathKey(query.URL.Path))
}

func TestBodyRecorderLimit(t *testing.T) {
	out := httptest.NewRecorder()
	rec := &bodyRecorder{ResponseWriter: out, status: http.StatusOK, limit: 8}
	_, _ = rec.Write([]byte("1234"))
	assert.Equal(t, "1234", rec.buf.String())
	assert.False(t, rec.overflow)

	_, _ = rec.Write([]byte("56789"))
	assert.True(t, rec.overflow)
	assert.Zero(t, rec.buf.Len())
	assert.Equal(t, "123456789", out.Body.String())
}

func TestBucketKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/bookings")
	user := uuid.New()
	c.Set(CtxUserID, user)

	assert.Equal(t, "rl:ip:10.0.0.7", bucketKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:user:"+user.String(), bucketKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
	assert.Equal(t, "rl:ip:10.0.0.7:user:"+user.String()+":route:POST /v1/bookings",
		bucketKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}, c))
}

func TestRequestLoggerLevels(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/bad", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "nope") })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError) })

	serve(e, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(e, httptest.NewRequest(http.MethodGet, "/bad", nil))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, http.StatusBadRequest, entries[1].Data["status"])
	assert.Equal(t, logrus.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/boom", entries[2].Data["path"])
}
