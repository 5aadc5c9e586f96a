package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stegverse/cfp-tickets/internal/clicklog"
	"github.com/stegverse/cfp-tickets/internal/experiment"
	"github.com/stegverse/cfp-tickets/internal/handler"
	"github.com/stegverse/cfp-tickets/internal/partnerize"
	"github.com/stegverse/cfp-tickets/internal/provider"
	"github.com/stegverse/cfp-tickets/internal/repository"
	"github.com/stegverse/cfp-tickets/internal/service"
)

func newEcho() *echo.Echo {
	kv := repository.NewKVStore(nil)
	flags := &repository.FlagRepo{KV: kv}
	svc := &service.TicketService{
		Builders:   []provider.URLBuilder{provider.SeatGeekLinks{BaseURL: "https://seatgeek.com"}},
		Clicks:     clicklog.NewAggregator(10),
		Experiment: experiment.DefaultConfig(),
		Flags:      flags,
	}
	e := echo.New()
	Register(e, Deps{
		Health:     &handler.HealthHandler{KV: kv},
		Tickets:    &handler.TicketHandler{Svc: svc},
		Events:     &handler.EventsHandler{Search: &provider.EventSearch{}},
		Ops:        &handler.OpsHandler{Flags: flags, KV: kv},
		Partnerize: &handler.PartnerizeHandler{Client: &partnerize.Client{}},
		JWTSecret:  "s3cret",
	})
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newEcho()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz", "GET /friendly", "GET /whoami", "GET /metrics",
		"GET /v1/tickets/search", "POST /v1/tickets/search", "GET /v1/tickets/click",
		"GET /v1/tickets/clicks/summary", "GET /v1/tickets/clicks/recent",
		"GET /v1/events/search",
		"GET /v1/ops/snapshot", "POST /v1/ops/config/set", "GET /v1/ops/config/list",
		"GET /v1/ops/config/get/:name", "PUT /v1/ops/hooks/:target", "POST /v1/ops/redeploy/:target",
		"GET /v1/partnerize/networks", "GET /v1/partnerize/campaigns/:id/conversions",
	} {
		assert.True(t, have[want], want)
	}
}

func TestOpsRequireAdminToken(t *testing.T) {
	e := newEcho()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/config/list", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops", "role": "ADMIN", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/config/list", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tickets/search?event_name=x", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cfp_search_requests_total")
}
