package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

// MetricsHandler serves the dashboard counters of the session user.
type MetricsHandler struct {
	Metrics repository.MetricsStore
}

func NewMetricsHandler(m repository.MetricsStore) *MetricsHandler {
	if m == nil {
		panic("nil repository passed to NewMetricsHandler")
	}
	return &MetricsHandler{Metrics: m}
}

// Get: GET /api/metrics. A user without a row sees zeros.
func (h *MetricsHandler) Get(c echo.Context) error {
	uid := getUserID(c)
	m, err := h.Metrics.GetMetrics(c.Request().Context(), uid)
	if err != nil {
		return internalError(err)
	}
	if m == nil {
		m = &model.Metrics{UserID: uid}
	}
	return c.JSON(http.StatusOK, m)
}

// Put: PUT /api/metrics replaces all counters.
func (h *MetricsHandler) Put(c echo.Context) error {
	var v model.MetricsValues
	if err := bind(c, &v, immutableKeys...); err != nil {
		return badRequest(c, err)
	}
	m, err := h.Metrics.UpsertMetrics(c.Request().Context(), getUserID(c), v)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
