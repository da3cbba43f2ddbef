package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/sabarisastha/annadanam/internal/handler"
)

// RegisterRoutes registers the unauthenticated routes: the health check
// and the public calendar and slot reads. cache wraps the calendar, whose
// content only changes with the date.
func RegisterRoutes(e *echo.Echo, h *handler.AnnadanamHandler, db handler.Pinger, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health(db))

	g := e.Group("/v1/annadanam")
	g.GET("/calendar", h.Calendar, cache)
	g.GET("/slots", h.Slots)
}
