package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/training-events/internal/logger"
)

// RequestLog writes one line per request: method, route, status, latency
// and the request id set by echo's RequestID middleware.
func RequestLog(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo's error handler set the final status
				c.Error(err)
			}
			res := c.Response()
			kv := []interface{}{
				"method", c.Request().Method,
				"path", c.Path(),
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"user", currentUserID(c),
			}
			switch {
			case res.Status >= 500:
				log.Error("request", kv...)
			case res.Status >= 400:
				log.Warn("request", kv...)
			default:
				log.Info("request", kv...)
			}
			return nil
		}
	}
}
