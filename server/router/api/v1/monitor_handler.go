package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Monitor reports live runs, recent history, counters and pool health.
func (s *APIV1Service) Monitor(c echo.Context) error {
	active, err := s.Store.CountActiveSessions(c.Request().Context())
	if err != nil {
		active = -1
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":          "success",
		"active_runs":     s.Registry.Active(),
		"history":         s.Registry.History(),
		"counters":        s.Counters.Snapshot(),
		"pool":            s.Store.PoolStats(),
		"active_sessions": active,
		"version":         s.Profile.Version,
	})
}
