package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultDays = 30
	maxDays     = 365
)

// Handler serves aggregated statistics.
type Handler struct {
	store  *Store
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a Handler over store.
func NewHandler(store *Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger, now: time.Now}
}

// RegisterRoutes mounts the stats endpoint.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/stats/", h.GetStats)
}

// StatsResponse is the JSON body of GET /api/stats/.
type StatsResponse struct {
	Stats      *Stats `json:"stats"`
	PeriodDays int    `json:"period_days"`
}

// parseDays reads ?days=N, clamped to [1, maxDays].
func parseDays(s string) int {
	n, err := strconv.Atoi(s)
	switch {
	case err != nil || n < 1:
		return defaultDays
	case n > maxDays:
		return maxDays
	default:
		return n
	}
}

// GetStats returns the stats of the last ?days=N days (default 30) as JSON.
func (h *Handler) GetStats(c echo.Context) error {
	days := parseDays(c.QueryParam("days"))
	to := h.now().UTC()
	from := to.AddDate(0, 0, -days)

	stats, err := h.store.Stats(c.Request().Context(), from, to.Add(time.Second))
	if err != nil {
		h.logger.Error("get stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, StatsResponse{Stats: stats, PeriodDays: days})
}
