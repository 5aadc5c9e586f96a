package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stegverse/cfp-tickets/internal/model"
	"github.com/stegverse/cfp-tickets/internal/service"
)

// ExperimentCookie carries the caller's experiment key between visits.
const ExperimentCookie = "cfp_exp"

// Default and maximum list sizes for the click reporting endpoints.
const (
	defaultSummaryWindow = 500
	defaultRecentLimit   = 50
	maxRecentLimit       = 500
)

// TicketHandler serves ticket search, the click redirect and click reports.
type TicketHandler struct {
	Svc *service.TicketService
}

// searchBody is the POST form of a search.  Pointer fields distinguish
// "absent" from zero so defaults apply the same way as for GET.
type searchBody struct {
	EventName    string            `json:"event_name"`
	Location     string            `json:"location"`
	Date         string            `json:"date"`
	Provider     string            `json:"provider"`
	GroupSize    *int              `json:"group_size"`
	MaxRows      *int              `json:"max_rows"`
	StackedRows  bool              `json:"stacked_rows"`
	MaxPrice     *float64          `json:"max_price"`
	ExperimentID string            `json:"experiment_id"`
	Inventory    []model.SeatBlock `json:"inventory"`
}

// Search handles GET /v1/tickets/search with query parameters.
func (h *TicketHandler) Search(c echo.Context) error {
	groupSize, err := intParam(c, "group_size", 2)
	if err != nil {
		return writeError(c, err)
	}
	maxRows, err := intParam(c, "max_rows", 1)
	if err != nil {
		return writeError(c, err)
	}
	maxPrice, err := floatParam(c, "max_price")
	if err != nil {
		return writeError(c, err)
	}
	stacked, err := boolParam(c, "stacked_rows")
	if err != nil {
		return writeError(c, err)
	}
	req := service.SearchRequest{
		EventName:     c.QueryParam("event_name"),
		Location:      c.QueryParam("location"),
		Date:          c.QueryParam("date"),
		Provider:      c.QueryParam("provider"),
		PartySize:     groupSize,
		MaxRows:       maxRows,
		StackedRows:   stacked,
		PriceCeiling:  maxPrice,
		ExperimentKey: experimentKey(c, c.QueryParam("experiment_id")),
	}
	return h.search(c, req)
}

// SearchPost handles POST /v1/tickets/search with a JSON body, which may
// carry inline seat inventory.
func (h *TicketHandler) SearchPost(c echo.Context) error {
	var body searchBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "body", "invalid JSON")
	}
	req := service.SearchRequest{
		EventName:     body.EventName,
		Location:      body.Location,
		Date:          body.Date,
		Provider:      body.Provider,
		PartySize:     2,
		MaxRows:       1,
		StackedRows:   body.StackedRows,
		PriceCeiling:  body.MaxPrice,
		ExperimentKey: experimentKey(c, body.ExperimentID),
		Inventory:     body.Inventory,
	}
	if body.GroupSize != nil {
		req.PartySize = *body.GroupSize
	}
	if body.MaxRows != nil {
		req.MaxRows = *body.MaxRows
	}
	return h.search(c, req)
}

func (h *TicketHandler) search(c echo.Context, req service.SearchRequest) error {
	res, err := h.Svc.Search(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Click handles GET /v1/tickets/click: it records the click and redirects
// to the marketplace.
func (h *TicketHandler) Click(c echo.Context) error {
	req := service.ClickRequest{
		Provider:    c.QueryParam("provider"),
		EventName:   c.QueryParam("event_name"),
		Location:    c.QueryParam("location"),
		Date:        c.QueryParam("date"),
		BucketLabel: c.QueryParam("bucket"),
		CampaignID:  firstNonEmpty(c.QueryParam("campaign_id"), c.QueryParam("cid")),
		ClientIP:    c.RealIP(),
		UserAgent:   c.Request().UserAgent(),
	}
	var err error
	if req.GroupSize, err = optionalInt(c, "group_size"); err != nil {
		return writeError(c, err)
	}
	if req.MaxRows, err = optionalInt(c, "max_rows"); err != nil {
		return writeError(c, err)
	}

	target, _, err := h.Svc.Click(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Redirect(http.StatusFound, target)
}

// Summary handles GET /v1/tickets/clicks/summary?limit=N.
func (h *TicketHandler) Summary(c echo.Context) error {
	window, err := intParam(c, "limit", defaultSummaryWindow)
	if err != nil {
		return writeError(c, err)
	}
	since, err := timeParam(c, "since")
	if err != nil {
		return writeError(c, err)
	}
	sum, err := h.Svc.Summary(window)
	if err != nil {
		return writeError(c, err)
	}
	if since == nil {
		return c.JSON(http.StatusOK, sum)
	}
	archived, err := h.Svc.ArchiveCounts(c.Request().Context(), *since)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, archiveSummary{ClickSummary: sum, Since: since.Unix(), ArchiveByProvider: archived})
}

// archiveSummary adds MySQL archive counts to the in-memory summary.
type archiveSummary struct {
	model.ClickSummary
	Since             int64          `json:"since"`
	ArchiveByProvider map[string]int `json:"archive_by_provider"`
}

// Recent handles GET /v1/tickets/clicks/recent?limit=N.
func (h *TicketHandler) Recent(c echo.Context) error {
	n, err := intParam(c, "limit", defaultRecentLimit)
	if err != nil {
		return writeError(c, err)
	}
	if n > maxRecentLimit {
		n = maxRecentLimit
	}
	items, err := h.Svc.RecentClicks(n)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// experimentKey prefers an explicit id and falls back to the cookie.
func experimentKey(c echo.Context, explicit string) string {
	if k := strings.TrimSpace(explicit); k != "" {
		return k
	}
	if ck, err := c.Cookie(ExperimentCookie); err == nil {
		return strings.TrimSpace(ck.Value)
	}
	return ""
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.ValidationError{Field: name, Msg: "must be an integer"}
	}
	return n, nil
}

func optionalInt(c echo.Context, name string) (*int, error) {
	if strings.TrimSpace(c.QueryParam(name)) == "" {
		return nil, nil
	}
	n, err := intParam(c, name, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func floatParam(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Msg: "must be a number"}
	}
	return &f, nil
}

// timeParam accepts unix seconds or RFC3339.
func timeParam(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		t := time.Unix(n, 0)
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Msg: "must be unix seconds or RFC3339"}
	}
	return &t, nil
}

func boolParam(c echo.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &service.ValidationError{Field: name, Msg: "must be true or false"}
	}
	return b, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
