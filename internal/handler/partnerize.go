package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stegverse/cfp-tickets/internal/partnerize"
)

// PartnerizeHandler proxies affiliate network reports for operators.
type PartnerizeHandler struct {
	Client *partnerize.Client
}

func (h *PartnerizeHandler) Networks(c echo.Context) error {
	raw, err := h.Client.Networks(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// Conversions handles GET /v1/partnerize/campaigns/:id/conversions with
// start_date, end_date, limit (1..1000, default 300) and offset (>= 0).
func (h *PartnerizeHandler) Conversions(c echo.Context) error {
	limit, err := intParam(c, "limit", 300)
	if err != nil {
		return writeError(c, err)
	}
	if limit < 1 || limit > 1000 {
		return badRequest(c, "limit", "must be between 1 and 1000")
	}
	offset, err := intParam(c, "offset", 0)
	if err != nil {
		return writeError(c, err)
	}
	if offset < 0 {
		return badRequest(c, "offset", "must not be negative")
	}

	raw, err := h.Client.Conversions(c.Request().Context(), c.Param("id"), partnerize.ConversionQuery{
		StartDate: c.QueryParam("start_date"),
		EndDate:   c.QueryParam("end_date"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}
