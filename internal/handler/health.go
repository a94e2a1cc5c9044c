package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a handler for load balancer checks. It answers "ok" while
// storage responds to a ping and 503 otherwise.
func Health(store Pinger, log logrus.FieldLogger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.WithError(err).Error("health: storage ping failed")
			return c.String(http.StatusServiceUnavailable, "unavailable")
		}
		return c.String(http.StatusOK, "ok")
	}
}
