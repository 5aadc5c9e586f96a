package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stegverse/cfp-tickets/internal/provider"
)

// EventsHandler serves the merged marketplace event search.
type EventsHandler struct {
	Search *provider.EventSearch
}

// SearchEvents handles GET /v1/events/search?q=&lat=&lon=&range=&per_page=.
func (h *EventsHandler) SearchEvents(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest(c, "q", "must not be empty")
	}
	lat, err := floatParam(c, "lat")
	if err != nil {
		return writeError(c, err)
	}
	lon, err := floatParam(c, "lon")
	if err != nil {
		return writeError(c, err)
	}
	if (lat == nil) != (lon == nil) {
		return badRequest(c, "lat", "lat and lon must be given together")
	}
	perPage, err := intParam(c, "per_page", 10)
	if err != nil {
		return writeError(c, err)
	}

	res, err := h.Search.Search(c.Request().Context(), provider.EventQuery{
		Query:    q,
		Lat:      lat,
		Lon:      lon,
		Range:    c.QueryParam("range"),
		PageSize: perPage,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
