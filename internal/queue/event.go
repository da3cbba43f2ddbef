// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedQueue is the durable queue confirmations are sent to.
const BookingConfirmedQueue = "annadanam.booking.confirmed"

// BookingConfirmedEvent is published when a reservation is confirmed.
// It carries enough for the notification side (confirmation mail, audit
// log) to act without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   string `json:"booking_id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Date        string `json:"date"`
	Session     string `json:"session"`
	Group       string `json:"group"`
	ConfirmedAt string `json:"confirmed_at"`
}
