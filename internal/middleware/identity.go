package middleware

// identity.go holds the context keys JWTAuth fills in and the accessors
// handlers and other middleware use to read them.

import "github.com/labstack/echo/v4"

const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxRequestID = "request_id"
)

// UserID returns the authenticated subject, or "" when the request is
// anonymous.
func UserID(c echo.Context) string {
	s, _ := c.Get(ctxUserID).(string)
	return s
}

// Role returns the role claim of the authenticated user, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// RequestIDFrom returns the id assigned by RequestID, or "".
func RequestIDFrom(c echo.Context) string {
	s, _ := c.Get(ctxRequestID).(string)
	return s
}
