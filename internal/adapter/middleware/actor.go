package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	HeaderActorID        = "X-Actor-Id"
	HeaderIdempotencyKey = "Idempotency-Key"

	actorContextKey = "actor_id"
)

// RequireActor rejects requests without a numeric X-Actor-Id. The caller's
// identity is established upstream; this service only trusts the header.
func RequireActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderActorID})
			}
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderActorID})
			}
			c.Set(actorContextKey, id)
			c.Set(loggerContextKey, LoggerFrom(c).WithField("actor_id", id))
			return next(c)
		}
	}
}

// Actor returns the id stored by RequireActor, or 0.
func Actor(c echo.Context) uint64 {
	id, _ := c.Get(actorContextKey).(uint64)
	return id
}

func formatUint(n uint64) string { return strconv.FormatUint(n, 10) }
