package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/stegverse/cfp-tickets/internal/repository"
)

// hookKeys maps redeploy targets to the KV key holding their webhook URL.
var hookKeys = map[string]string{
	"ui":      "HOOK_NETLIFY",
	"netlify": "HOOK_NETLIFY",
	"api":     "HOOK_RENDER_API",
	"worker":  "HOOK_RENDER_WORKER",
	"vercel":  "HOOK_VERCEL",
}

// OpsHandler serves the operator endpoints: runtime settings and deploy
// hooks.  Routes are mounted behind JWTAuth + RequireRole("ADMIN").
type OpsHandler struct {
	Flags *repository.FlagRepo
	KV    *repository.KVStore
	HTTP  *http.Client // webhook client; 10s timeout when nil
	Now   func() time.Time
}

type configItem struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Snapshot returns the whole config hash with the server time.
func (h *OpsHandler) Snapshot(c echo.Context) error {
	kv, err := h.Flags.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return c.JSON(http.StatusOK, echo.Map{
		"kv":         kv,
		"kv_backend": h.KV.Backend(),
		"time":       now().Unix(),
	})
}

func (h *OpsHandler) ConfigSet(c echo.Context) error {
	var item configItem
	if err := c.Bind(&item); err != nil {
		return badRequest(c, "body", "invalid JSON")
	}
	item.Key = strings.TrimSpace(item.Key)
	if item.Key == "" {
		return badRequest(c, "key", "must not be empty")
	}
	if len(item.Value) == 0 {
		return badRequest(c, "value", "is required")
	}
	if err := h.Flags.SetJSON(c.Request().Context(), item.Key, item.Value); err != nil {
		return writeError(c, err)
	}
	log.Info().Str("key", item.Key).Str("by", fmt.Sprint(c.Get("user_id"))).Msg("ops: config set")
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "key": item.Key})
}

func (h *OpsHandler) ConfigList(c echo.Context) error {
	kv, err := h.Flags.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, kv)
}

func (h *OpsHandler) ConfigGet(c echo.Context) error {
	v, err := h.Flags.Get(c.Request().Context(), c.Param("name"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// SetHook stores the webhook URL of a redeploy target.
func (h *OpsHandler) SetHook(c echo.Context) error {
	key, ok := hookKeys[c.Param("target")]
	if !ok {
		return badRequest(c, "target", "unknown redeploy target")
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "body", "invalid JSON")
	}
	u, err := url.Parse(strings.TrimSpace(body.URL))
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return badRequest(c, "url", "must be an absolute http(s) URL")
	}
	if err := h.KV.Set(c.Request().Context(), key, u.String()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "target": c.Param("target")})
}

// Redeploy POSTs to the stored webhook of a target.  Hook failures are
// reported in the body rather than as a request failure.
func (h *OpsHandler) Redeploy(c echo.Context) error {
	target := c.Param("target")
	key, ok := hookKeys[target]
	if !ok {
		return badRequest(c, "target", "unknown redeploy target")
	}
	hook, err := h.KV.Get(c.Request().Context(), key)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && hook == "") {
		return badRequest(c, "target", "missing "+key)
	}
	if err != nil {
		return writeError(c, err)
	}

	client := h.HTTP
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodPost, hook, nil)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"target": target, "error": err.Error()})
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("target", target).Msg("ops: redeploy hook failed")
		return c.JSON(http.StatusOK, echo.Map{"target": target, "error": err.Error()})
	}
	resp.Body.Close()
	log.Info().Str("target", target).Int("status", resp.StatusCode).Msg("ops: redeploy hook triggered")
	return c.JSON(http.StatusOK, echo.Map{"target": target, "status_code": resp.StatusCode})
}
