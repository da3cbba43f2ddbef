package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sabarisastha/annadanam/internal/eligibility"
	"github.com/sabarisastha/annadanam/internal/middleware"
	"github.com/sabarisastha/annadanam/internal/model"
	"github.com/sabarisastha/annadanam/internal/service"
)

// BookingService is the allocator as seen by the HTTP layer.
// *service.Allocator satisfies it.
type BookingService interface {
	Slots(ctx context.Context, date string) (*model.DaySlots, error)
	ReserveWithRetry(ctx context.Context, req service.ReserveRequest, attempts int) (*model.Booking, error)
	MyBookings(ctx context.Context, userID string) ([]model.Booking, error)
	DayBookings(ctx context.Context, date, group string) ([]model.Booking, error)
	Cancel(ctx context.Context, userID, bookingID string) error
}

// AnnadanamHandler serves the booking endpoints. Authentication and role
// checks are done by middleware; handlers only read the resulting user id.
type AnnadanamHandler struct {
	svc      BookingService
	engine   *eligibility.Engine
	limits   service.Limits
	attempts int
	log      *zap.Logger
}

// NewAnnadanamHandler wires the handler. attempts bounds the retries of a
// reservation that hit a transient store error.
func NewAnnadanamHandler(svc BookingService, engine *eligibility.Engine, limits service.Limits, attempts int, logger *zap.Logger) *AnnadanamHandler {
	if svc == nil || engine == nil {
		panic("nil dependency passed to NewAnnadanamHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnadanamHandler{svc: svc, engine: engine, limits: limits, attempts: attempts, log: logger}
}

type dateRange struct {
	Start eligibility.Date `json:"start"`
	End   eligibility.Date `json:"end"`
}

type groupInfo struct {
	Group    eligibility.Group     `json:"group"`
	Window   string                `json:"booking_window"`
	Sessions []eligibility.Session `json:"sessions"`
}

type calendarResponse struct {
	TimeZone        string             `json:"timezone"`
	Today           eligibility.Date   `json:"today"`
	Season          dateRange          `json:"season"`
	Range           dateRange          `json:"range"`
	ExtraDates      []eligibility.Date `json:"extra_dates"`
	SessionCapacity int                `json:"session_capacity"`
	GroupCap        int                `json:"group_cap"`
	Groups          []groupInfo        `json:"groups"`
}

// Calendar handles GET /v1/annadanam/calendar. It describes what the date
// picker may offer: the current season, the navigable range including
// extra dates, and the sessions with their booking windows.
func (h *AnnadanamHandler) Calendar(c echo.Context) error {
	today := h.engine.Today()
	cal := h.engine.Calendar()
	cat := h.engine.Sessions()

	season := cal.Season(today)
	from, to := cal.Range(today)
	resp := calendarResponse{
		TimeZone:        h.engine.Location().String(),
		Today:           today,
		Season:          dateRange{Start: season.Start, End: season.End},
		Range:           dateRange{Start: from, End: to},
		ExtraDates:      cal.ExtraDates(),
		SessionCapacity: h.limits.SessionCapacity,
		GroupCap:        h.limits.GroupCap,
	}
	for _, g := range cat.Groups() {
		info := groupInfo{Group: g}
		if w, ok := cat.Window(g); ok {
			info.Window = w.String()
		}
		for _, s := range cat.Sessions() {
			if s.Group == g {
				info.Sessions = append(info.Sessions, s)
			}
		}
		resp.Groups = append(resp.Groups, info)
	}
	return c.JSON(http.StatusOK, resp)
}

// Slots handles GET /v1/annadanam/slots?date=YYYY-MM-DD. Without a date it
// reports today in the reference timezone.
func (h *AnnadanamHandler) Slots(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = h.engine.Today().String()
	}
	out, err := h.svc.Slots(c.Request().Context(), date)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type reserveBody struct {
	Date    string `json:"date"`
	Session string `json:"session"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Reserve handles POST /v1/annadanam/reservations. The user id comes from
// the verified token; anything in the body claiming otherwise is ignored.
func (h *AnnadanamHandler) Reserve(c echo.Context) error {
	var body reserveBody
	if err := c.Bind(&body); err != nil {
		return h.fail(c, service.ErrInvalidRequest)
	}
	b, err := h.svc.ReserveWithRetry(c.Request().Context(), service.ReserveRequest{
		Date:    body.Date,
		Session: body.Session,
		UserID:  middleware.UserID(c),
		Name:    body.Name,
		Email:   body.Email,
		Phone:   body.Phone,
	}, h.attempts)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// MyBookings handles GET /v1/annadanam/my-bookings.
func (h *AnnadanamHandler) MyBookings(c echo.Context) error {
	list, err := h.svc.MyBookings(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// CancelBooking handles DELETE /v1/annadanam/bookings/:id. Cancellation is
// not offered yet, so this always answers 501 for signed-in users.
func (h *AnnadanamHandler) CancelBooking(c echo.Context) error {
	if err := h.svc.Cancel(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DayBookings handles GET /v1/admin/annadanam/bookings?date=&group=, the
// per-service digest of confirmed bookings. date defaults to today.
func (h *AnnadanamHandler) DayBookings(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = h.engine.Today().String()
	}
	group := c.QueryParam("group")
	list, err := h.svc.DayBookings(c.Request().Context(), date, group)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":     date,
		"group":    group,
		"count":    len(list),
		"bookings": list,
	})
}

// fail renders err as {"error": code, "message": text}.
func (h *AnnadanamHandler) fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		h.log.Error("booking request failed",
			zap.String("path", c.Path()),
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.Error(err))
	}
	return c.JSON(status, echo.Map{"error": service.Code(err), "message": service.Message(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSlotFull),
		errors.Is(err, service.ErrGroupFull),
		errors.Is(err, service.ErrDuplicateBooking):
		return http.StatusConflict
	case errors.Is(err, service.ErrTransientStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrCancellationUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
