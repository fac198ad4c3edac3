package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const loggerContextKey = "logger"

// RequestLogger tags every request with an X-Request-Id (taken from the
// client or generated) and logs one line per request once it completes.
func RequestLogger(base *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			reqID := req.Header.Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			entry := base.WithFields(logrus.Fields{
				"request_id": reqID,
				"method":     req.Method,
				"route":      c.Path(),
			})
			c.Set(loggerContextKey, entry)

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			fields := logrus.Fields{
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
			}
			if c.Response().Status >= 500 {
				entry.WithFields(fields).Warn("request completed with server error")
			} else {
				entry.WithFields(fields).Info("request completed")
			}
			return nil
		}
	}
}

// LoggerFrom returns the request-scoped entry, or a standard logger entry
// when RequestLogger is not installed.
func LoggerFrom(c echo.Context) *logrus.Entry {
	if e, ok := c.Get(loggerContextKey).(*logrus.Entry); ok {
		return e
	}
	e := logrus.NewEntry(logrus.StandardLogger())
	c.Set(loggerContextKey, e)
	return e
}
