// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/stegverse/cfp-tickets/internal/config"
	"github.com/stegverse/cfp-tickets/internal/handler"
	"github.com/stegverse/cfp-tickets/internal/middleware"
)

// Deps carries what the route groups need.  Redis may be nil; the rate
// limiter and response cache are then skipped.
type Deps struct {
	Health     *handler.HealthHandler
	Tickets    *handler.TicketHandler
	Events     *handler.EventsHandler
	Ops        *handler.OpsHandler
	Partnerize *handler.PartnerizeHandler

	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
}

// Register mounts every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d.Health)
	RegisterTickets(e, d.Tickets, middleware.RateLimit(d.RateLimit, d.Redis))
	RegisterEvents(e, d.Events, middleware.ResponseCache(d.Cache, d.Redis))
	RegisterOps(e, d.Ops, d.Partnerize, d.JWTSecret)
}

// RegisterRoutes mounts the unauthenticated service endpoints.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/friendly", h.Friendly)
	e.GET("/whoami", h.WhoAmI)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterTickets mounts search, the click redirect and click reports.
// Only the redirect is rate limited.
func RegisterTickets(e *echo.Echo, t *handler.TicketHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/tickets")
	g.GET("/search", t.Search)
	g.POST("/search", t.SearchPost)
	g.GET("/click", t.Click, limit)
	g.GET("/clicks/summary", t.Summary)
	g.GET("/clicks/recent", t.Recent)
}

// RegisterEvents mounts the cached marketplace event search.
func RegisterEvents(e *echo.Echo, h *handler.EventsHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/events/search", h.SearchEvents, cache)
}

// RegisterOps mounts the operator routes behind an ADMIN token.
func RegisterOps(e *echo.Echo, o *handler.OpsHandler, p *handler.PartnerizeHandler, jwtSecret string) {
	guard := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN")}

	ops := e.Group("/v1/ops", guard...)
	ops.GET("/snapshot", o.Snapshot)
	ops.POST("/config/set", o.ConfigSet)
	ops.GET("/config/list", o.ConfigList)
	ops.GET("/config/get/:name", o.ConfigGet)
	ops.PUT("/hooks/:target", o.SetHook)
	ops.POST("/redeploy/:target", o.Redeploy)

	pz := e.Group("/v1/partnerize", guard...)
	pz.GET("/networks", p.Networks)
	pz.GET("/campaigns/:id/conversions", p.Conversions)
}
