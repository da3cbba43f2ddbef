package router

import (
	"github.com/labstack/echo/v4"

	"github.com/sabarisastha/annadanam/internal/handler"
	"github.com/sabarisastha/annadanam/internal/middleware"
)

// RegisterDevotee registers the signed-in booking endpoints. Every route
// requires a valid JWT; reservations are additionally rate limited.
func RegisterDevotee(e *echo.Echo, h *handler.AnnadanamHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/annadanam", middleware.JWTAuth(jwtSecret))
	g.POST("/reservations", h.Reserve, limiter)
	g.GET("/my-bookings", h.MyBookings)
	g.DELETE("/bookings/:id", h.CancelBooking)
}
