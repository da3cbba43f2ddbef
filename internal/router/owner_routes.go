package router

import (
	"github.com/labstack/echo/v4"

	"github.com/sabarisastha/annadanam/internal/handler"
	"github.com/sabarisastha/annadanam/internal/middleware"
)

// AdminRole is the role claim required for the administrative endpoints.
const AdminRole = "admin"

// RegisterAdmin registers the temple-office endpoints under /v1/admin.
// They require a valid JWT carrying the admin role.
func RegisterAdmin(e *echo.Echo, h *handler.AnnadanamHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin/annadanam",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(AdminRole),
	)
	g.GET("/bookings", h.DayBookings)
}
