package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// PingFunc reports whether a backing store is reachable.
type PingFunc func(ctx context.Context) error

// HealthHandler reports the reachability of every backing store.
type HealthHandler struct {
	stores  map[string]PingFunc
	timeout time.Duration
	logger  *slog.Logger
}

// NewHealthHandler creates a new HealthHandler pinging each named store.
func NewHealthHandler(stores map[string]PingFunc, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{stores: stores, timeout: 2 * time.Second, logger: logger}
}

// HealthCheck answers 200 when every store responds and 503 otherwise.
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	status, code := "healthy", http.StatusOK
	stores := make(map[string]string, len(h.stores))
	for name, ping := range h.stores {
		if err := ping(ctx); err != nil {
			h.logger.Warn("store ping failed", "store", name, "error", err)
			stores[name] = "disconnected"
			status, code = "unhealthy", http.StatusServiceUnavailable
			continue
		}
		stores[name] = "connected"
	}

	return c.JSON(code, echo.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"stores":    stores,
	})
}
