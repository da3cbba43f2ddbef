package service

import (
	"errors"

	"github.com/sabarisastha/annadanam/internal/eligibility"
)

// Failure kinds returned by the Allocator. Callers match them with
// errors.Is; the wrapped detail is for logs only.
var (
	ErrNotAuthenticated        = errors.New("not authenticated")
	ErrInvalidRequest          = errors.New("invalid request")
	ErrNotEligible             = errors.New("not eligible")
	ErrSlotFull                = errors.New("slot full")
	ErrGroupFull               = errors.New("group full")
	ErrDuplicateBooking        = errors.New("duplicate booking")
	ErrTransientStore          = errors.New("transient store error")
	ErrCancellationUnsupported = errors.New("cancellation not supported")
)

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, ErrSlotFull):
		return "slot_full"
	case errors.Is(err, ErrGroupFull):
		return "group_full"
	case errors.Is(err, ErrDuplicateBooking):
		return "duplicate_booking"
	case errors.Is(err, ErrTransientStore):
		return "transient_store_error"
	case errors.Is(err, ErrCancellationUnsupported):
		return "not_implemented"
	default:
		return "internal_error"
	}
}

// Message returns the user-facing text for err. Each failure kind has its
// own wording so the user knows whether to pick another session or retry.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in to book a session."
	case errors.Is(err, ErrInvalidRequest):
		return "Please provide a valid date, session, name and email."
	case errors.Is(err, eligibility.ErrUnknownSession):
		return "This session does not exist."
	case errors.Is(err, eligibility.ErrOutOfSeason):
		return "Bookings are not open for this date."
	case errors.Is(err, eligibility.ErrOutsideWindow):
		return "Bookings for this session are closed at this time. Please try again during the booking window."
	case errors.Is(err, eligibility.ErrSessionStarted):
		return "This session has already started."
	case errors.Is(err, ErrNotEligible):
		return "This session is not open for booking."
	case errors.Is(err, ErrSlotFull):
		return "This session is full. Please pick another session."
	case errors.Is(err, ErrGroupFull):
		return "All sessions at this time of day are full for this date."
	case errors.Is(err, ErrDuplicateBooking):
		return "You already booked this session."
	case errors.Is(err, ErrTransientStore):
		return "We could not complete your booking right now. Please try again."
	case errors.Is(err, ErrCancellationUnsupported):
		return "Cancelling a booking is not available yet."
	default:
		return "Booking failed. Please try again later."
	}
}
