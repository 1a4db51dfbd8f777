package report

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/platform/db"
	"github.com/ehr/bedtrack/internal/platform/middleware"
)

// NewServer builds the echo instance for r. When pinger is non-nil the
// database behind the tables is checked at /health/db.
func NewServer(r Reader, logger zerolog.Logger, pinger db.Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	NewHandler(r).RegisterRoutes(e)
	if pinger != nil {
		e.GET("/health/db", db.HealthHandler(pinger))
	}
	return e
}
