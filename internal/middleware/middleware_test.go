package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stegverse/cfp-tickets/internal/config"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func opsServer(secret string) *echo.Echo {
	e := echo.New()
	g := e.Group("/ops", JWTAuth(secret), RequireRole("ADMIN"))
	g.GET("/who", func(c echo.Context) error {
		return c.String(http.StatusOK, subject(c))
	})
	return e
}

func call(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ops/who", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	e := opsServer(secret)
	exp := time.Now().Add(time.Hour).Unix()

	admin := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "ops-1", "role": "admin", "exp": exp})
	rec := call(e, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops-1", rec.Body.String())

	viewer := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u", "role": "VIEWER", "exp": exp})
	assert.Equal(t, http.StatusForbidden, call(e, viewer).Code)

	assert.Equal(t, http.StatusUnauthorized, call(e, "").Code)

	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"role": "ADMIN", "exp": exp})
	assert.Equal(t, http.StatusUnauthorized, call(e, wrongKey).Code)

	expired := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"role": "ADMIN", "exp": time.Now().Add(-time.Minute).Unix()})
	assert.Equal(t, http.StatusUnauthorized, call(e, expired).Code)

	hs512 := sign(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{"role": "ADMIN", "exp": exp})
	assert.Equal(t, http.StatusUnauthorized, call(e, hs512).Code)
}

func TestJWTAuth_NoSecret(t *testing.T) {
	e := opsServer("")
	assert.Equal(t, http.StatusServiceUnavailable, call(e, "anything").Code)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	e := echo.New()
	e.Use(AccessLog())
	e.GET("/v1/things/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "no")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/things/7", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	out := buf.String()
	assert.Contains(t, out, "[access]")
	assert.Contains(t, out, "GET /v1/things/7 418")
	assert.Contains(t, out, `"route":"/v1/things/:id"`)
	assert.Contains(t, out, "192.0.2.1")
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/tickets/click?x=1", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.1.2.3")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/tickets/click")

	cfg := config.RateLimitConfig{Prefix: "cfp:rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "cfp:rl:ip:10.1.2.3:route:GET /v1/tickets/click", rateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "cfp:rl:user:anon", rateKey(cfg, c))
}

func TestDisabledMiddlewarePassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		RateLimit(config.RateLimitConfig{Enabled: true}, nil),
		ResponseCache(config.CacheConfig{Enabled: true}, nil),
	)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCacheKey_DependsOnQuery(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cfp:cache", KeyStrategy: "route_query"}
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/events/search")
		return cacheKey(cfg, c)
	}
	assert.Equal(t, key("/v1/events/search?q=a"), key("/v1/events/search?q=a"))
	assert.NotEqual(t, key("/v1/events/search?q=a"), key("/v1/events/search?q=b"))
	assert.Regexp(t, `^cfp:cache:[0-9a-f]{40}$`, key("/v1/events/search?q=a"))
}

func TestRecorder_Overflow(t *testing.T) {
	rec := &recorder{ResponseWriter: httptest.NewRecorder(), limit: 4}
	_, _ = rec.Write([]byte("ab"))
	assert.False(t, rec.overflow)
	_, _ = rec.Write([]byte("cde"))
	assert.True(t, rec.overflow)
	assert.Zero(t, rec.buf.Len())
}

func TestIPExtractor(t *testing.T) {
	realIP := func(ex echo.IPExtractor, xff string) string {
		e := echo.New()
		e.IPExtractor = ex
		e.GET("/ip", func(c echo.Context) error { return c.String(http.StatusOK, c.RealIP()) })
		req := httptest.NewRequest(http.MethodGet, "/ip", nil)
		req.RemoteAddr = "192.0.2.10:4711"
		if xff != "" {
			req.Header.Set(echo.HeaderXForwardedFor, xff)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Body.String()
	}

	direct := IPExtractor(nil)
	assert.Equal(t, "192.0.2.10", realIP(direct, "203.0.113.7"), "forwarded header ignored without trusted proxies")
	assert.Equal(t, "192.0.2.10", realIP(IPExtractor([]string{"not-a-cidr"}), "203.0.113.7"))

	proxied := IPExtractor([]string{"192.0.2.0/24"})
	assert.Equal(t, "203.0.113.7", realIP(proxied, "203.0.113.7"))
	assert.Equal(t, "10.0.0.5", realIP(proxied, "203.0.113.7, 10.0.0.5"), "private hops are not trusted implicitly")
	assert.Equal(t, "192.0.2.10", realIP(proxied, ""))

	single := IPExtractor([]string{"192.0.2.10"})
	assert.Equal(t, "203.0.113.7", realIP(single, "203.0.113.7"))
}
