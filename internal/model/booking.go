package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is one person's reservation of one session on one date.
// Only Status may change after creation; the contact fields are a snapshot
// taken at booking time.
//
// Fields:
//  ID        – uuid assigned on creation.
//  CreatedAt – server timestamp at insertion (UTC).
//  Date      – YYYY-MM-DD of the booked session.
//  Session   – session label.
//  UserID    – identity supplied by the authentication provider.
//  Qty       – always 1.
//  Status    – confirmed or cancelled; only confirmed counts toward capacity.
type Booking struct {
	ID        string        `db:"id" json:"id"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	Date      string        `db:"booking_date" json:"date"`
	Session   string        `db:"session" json:"session"`
	UserID    string        `db:"user_id" json:"user_id"`
	Name      string        `db:"name" json:"name"`
	Email     string        `db:"email" json:"email"`
	Phone     string        `db:"phone" json:"phone"`
	Qty       int           `db:"qty" json:"qty"`
	Status    BookingStatus `db:"status" json:"status"`
}
