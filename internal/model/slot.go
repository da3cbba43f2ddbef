package model

// SlotStatus reports whether a slot still has capacity.
type SlotStatus string

const (
	SlotOpen   SlotStatus = "open"
	SlotClosed SlotStatus = "closed"
)

// Slot is one session on one date. It is derived from bookings and never
// stored. Status reflects capacity only; Bookable is the separate,
// advisory time-window check for the client.
type Slot struct {
	Date        string     `json:"date"`
	Session     string     `json:"session"`
	Group       string     `json:"group"`
	Capacity    int        `json:"capacity"`
	BookedCount int        `json:"booked_count"`
	Status      SlotStatus `json:"status"`
	Bookable    bool       `json:"bookable"`
}

// GroupOccupancy is the shared-cap view of one session group on a date.
type GroupOccupancy struct {
	Group     string `json:"group"`
	Cap       int    `json:"cap"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
}

// DaySlots is the full occupancy projection for a date.
type DaySlots struct {
	Date   string           `json:"date"`
	Slots  []Slot           `json:"slots"`
	Groups []GroupOccupancy `json:"groups"`
}
