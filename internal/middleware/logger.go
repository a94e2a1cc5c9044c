package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request through logrus.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := logrus.Fields{
				"method":  v.Method,
				"path":    v.URIPath,
				"route":   v.RoutePath,
				"status":  v.Status,
				"latency": v.Latency.String(),
				"ip":      v.RemoteIP,
			}
			if uid := UserID(c); uid != "" {
				fields["user_id"] = uid
			}
			entry := log.WithFields(fields)
			switch {
			case v.Error != nil:
				entry.WithError(v.Error).Error("request failed")
			case v.Status >= 500:
				entry.Error("request")
			case v.Status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}
