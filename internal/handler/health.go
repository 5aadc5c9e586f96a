package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stegverse/cfp-tickets/internal/repository"
)

// BootKey is the KV key stamped with the unix time of the last start.
const BootKey = "SCW_API_LAST_BOOT"

// HealthHandler serves liveness and identity endpoints.
type HealthHandler struct {
	ServiceID string
	Env       string
	KV        *repository.KVStore
}

// Health is used by load balancers; it never touches dependencies.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (h *HealthHandler) Friendly(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"hi": "cfp-tickets is online"})
}

// WhoAmI reports the deployment identity and the last boot stamp.
func (h *HealthHandler) WhoAmI(c echo.Context) error {
	out := echo.Map{"service": "cfp-tickets", "service_id": h.ServiceID, "env": h.Env}
	if h.KV != nil {
		out["kv_backend"] = h.KV.Backend()
		boot, err := h.KV.Get(c.Request().Context(), BootKey)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return writeError(c, err)
		}
		out["last_boot"] = boot
	}
	return c.JSON(http.StatusOK, out)
}
