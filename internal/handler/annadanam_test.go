package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sabarisastha/annadanam/internal/clock"
	"github.com/sabarisastha/annadanam/internal/eligibility"
	"github.com/sabarisastha/annadanam/internal/middleware"
	"github.com/sabarisastha/annadanam/internal/model"
	"github.com/sabarisastha/annadanam/internal/service"
	"github.com/sabarisastha/annadanam/internal/utils"
)

const secret = "handler-secret"

var ist = time.FixedZone("IST", 5*3600+1800)

// fakeService records the last reservation request and returns canned
// results.
type fakeService struct {
	reserveErr  error
	lastReserve service.ReserveRequest
	attempts    int
	slotsDate   string
	listErr     error
	digestArgs  [2]string
}

func (f *fakeService) Slots(_ context.Context, date string) (*model.DaySlots, error) {
	f.slotsDate = date
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &model.DaySlots{Date: date, Slots: []model.Slot{{Date: date, Session: "1:00 PM - 1:30 PM", Capacity: 40, Status: model.SlotOpen}}}, nil
}

func (f *fakeService) ReserveWithRetry(_ context.Context, req service.ReserveRequest, attempts int) (*model.Booking, error) {
	f.lastReserve, f.attempts = req, attempts
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	return &model.Booking{ID: "b-1", Date: req.Date, Session: req.Session, UserID: req.UserID, Qty: 1, Status: model.BookingConfirmed}, nil
}

func (f *fakeService) MyBookings(_ context.Context, userID string) ([]model.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []model.Booking{{ID: "b-1", UserID: userID}}, nil
}

func (f *fakeService) DayBookings(_ context.Context, date, group string) ([]model.Booking, error) {
	f.digestArgs = [2]string{date, group}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []model.Booking{{ID: "b-1"}, {ID: "b-2"}}, nil
}

func (f *fakeService) Cancel(_ context.Context, userID, _ string) error {
	if userID == "" {
		return service.ErrNotAuthenticated
	}
	return service.ErrCancellationUnsupported
}

func newTestServer(t *testing.T, svc *fakeService) *echo.Echo {
	t.Helper()
	c := clock.Fake(time.Date(2025, time.December, 1, 9, 0, 0, 0, ist))
	cal := eligibility.NewCalendar(eligibility.DefaultSeasonRule, []eligibility.Date{eligibility.NewDate(2025, time.October, 31)})
	engine := eligibility.NewEngine(c, ist, cal, eligibility.DefaultCatalogue())
	h := NewAnnadanamHandler(svc, engine, service.Limits{SessionCapacity: 40, GroupCap: 150}, 3, nil)

	e := echo.New()
	e.GET("/calendar", h.Calendar)
	e.GET("/slots", h.Slots)
	auth := e.Group("", middleware.JWTAuth(secret))
	auth.POST("/reservations", h.Reserve)
	auth.GET("/my-bookings", h.MyBookings)
	auth.DELETE("/bookings/:id", h.CancelBooking)
	auth.GET("/admin/bookings", h.DayBookings)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != "" {
		tok, err := utils.NewAccessToken(secret, user, "authenticated", time.Hour)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestReserveUsesTokenIdentity(t *testing.T) {
	svc := &fakeService{}
	e := newTestServer(t, svc)

	body := `{"date":"2025-12-01","session":"1:00 PM - 1:30 PM","name":"Ravi","email":"ravi@example.com","phone":"99","user_id":"spoofed"}`
	rec := do(t, e, http.MethodPost, "/reservations", body, "user-7")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.lastReserve.UserID != "user-7" || svc.lastReserve.Name != "Ravi" || svc.attempts != 3 {
		t.Fatalf("request passed to service = %+v attempts=%d", svc.lastReserve, svc.attempts)
	}
	var b model.Booking
	decode(t, rec, &b)
	if b.ID != "b-1" || b.Status != model.BookingConfirmed {
		t.Fatalf("response booking = %+v", b)
	}
}

func TestReserveRequiresToken(t *testing.T) {
	e := newTestServer(t, &fakeService{})
	rec := do(t, e, http.MethodPost, "/reservations", `{}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestReserveErrorMapping(t *testing.T) {
	tests := []struct {
		err      error
		status   int
		code     string
		contains string
	}{
		{fmt.Errorf("%w: %w", service.ErrNotEligible, eligibility.ErrOutsideWindow), http.StatusUnprocessableEntity, "not_eligible", "closed at this time"},
		{service.ErrSlotFull, http.StatusConflict, "slot_full", "This session is full"},
		{service.ErrGroupFull, http.StatusConflict, "group_full", "full for this date"},
		{service.ErrDuplicateBooking, http.StatusConflict, "duplicate_booking", "You already booked this session."},
		{fmt.Errorf("%w: deadlock", service.ErrTransientStore), http.StatusServiceUnavailable, "transient_store_error", "try again"},
		{service.ErrInvalidRequest, http.StatusBadRequest, "invalid_request", "valid date"},
		{errors.New("kaboom"), http.StatusInternalServerError, "internal_error", "Booking failed"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			e := newTestServer(t, &fakeService{reserveErr: tt.err})
			rec := do(t, e, http.MethodPost, "/reservations", `{"date":"2025-12-01","session":"x","name":"n","email":"e"}`, "u1")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var out map[string]string
			decode(t, rec, &out)
			if out["error"] != tt.code || !strings.Contains(out["message"], tt.contains) {
				t.Fatalf("body = %v", out)
			}
		})
	}
}

func TestReserveMalformedBody(t *testing.T) {
	e := newTestServer(t, &fakeService{})
	rec := do(t, e, http.MethodPost, "/reservations", `{"date":`, "u1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSlotsDefaultsToToday(t *testing.T) {
	svc := &fakeService{}
	e := newTestServer(t, svc)

	rec := do(t, e, http.MethodGet, "/slots", "", "")
	if rec.Code != http.StatusOK || svc.slotsDate != "2025-12-01" {
		t.Fatalf("status=%d date=%q", rec.Code, svc.slotsDate)
	}
	do(t, e, http.MethodGet, "/slots?date=2025-12-24", "", "")
	if svc.slotsDate != "2025-12-24" {
		t.Fatalf("date = %q", svc.slotsDate)
	}

	svc.listErr = fmt.Errorf("%w: x", service.ErrInvalidRequest)
	if rec := do(t, e, http.MethodGet, "/slots?date=bad", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d", rec.Code)
	}
}

func TestCalendar(t *testing.T) {
	e := newTestServer(t, &fakeService{})
	rec := do(t, e, http.MethodGet, "/calendar", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		TimeZone string `json:"timezone"`
		Today    string `json:"today"`
		Season   struct{ Start, End string }
		Range    struct{ Start, End string }
		Extra    []string `json:"extra_dates"`
		Groups   []struct {
			Group    string `json:"group"`
			Window   string `json:"booking_window"`
			Sessions []struct {
				Label string `json:"label"`
				Start string `json:"start"`
			} `json:"sessions"`
		} `json:"groups"`
	}
	decode(t, rec, &out)
	if out.Today != "2025-12-01" || out.Season.Start != "2025-11-05" || out.Season.End != "2026-01-07" {
		t.Fatalf("season = %+v today=%s", out.Season, out.Today)
	}
	if out.Range.Start != "2025-10-31" || len(out.Extra) != 1 {
		t.Fatalf("range = %+v extra=%v", out.Range, out.Extra)
	}
	if len(out.Groups) != 2 || out.Groups[0].Window != "05:00-11:30" || len(out.Groups[0].Sessions) != 4 {
		t.Fatalf("groups = %+v", out.Groups)
	}
	if out.Groups[0].Sessions[0].Start != "13:00" {
		t.Fatalf("first session = %+v", out.Groups[0].Sessions[0])
	}
}

func TestMyBookingsAndCancel(t *testing.T) {
	e := newTestServer(t, &fakeService{})

	rec := do(t, e, http.MethodGet, "/my-bookings", "", "u9")
	var out struct {
		Bookings []model.Booking `json:"bookings"`
	}
	decode(t, rec, &out)
	if rec.Code != http.StatusOK || len(out.Bookings) != 1 || out.Bookings[0].UserID != "u9" {
		t.Fatalf("status=%d bookings=%+v", rec.Code, out.Bookings)
	}

	rec = do(t, e, http.MethodDelete, "/bookings/b-1", "", "u9")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("cancel status = %d, want 501", rec.Code)
	}
}

func TestDayBookings(t *testing.T) {
	svc := &fakeService{}
	e := newTestServer(t, svc)

	rec := do(t, e, http.MethodGet, "/admin/bookings?group=evening", "", "admin-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.digestArgs != [2]string{"2025-12-01", "evening"} {
		t.Fatalf("service called with %v", svc.digestArgs)
	}
	var out struct {
		Count int `json:"count"`
	}
	decode(t, rec, &out)
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
}

type pingerFunc func(context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	for _, tt := range []struct {
		db   Pinger
		want int
	}{
		{nil, http.StatusOK},
		{pingerFunc(func(context.Context) error { return nil }), http.StatusOK},
		{pingerFunc(func(context.Context) error { return errors.New("down") }), http.StatusServiceUnavailable},
	} {
		e := echo.New()
		e.GET("/healthz", Health(tt.db))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != tt.want {
			t.Errorf("status = %d, want %d", rec.Code, tt.want)
		}
	}
}
