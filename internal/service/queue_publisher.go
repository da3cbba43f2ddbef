package service

import (
	"context"
	"time"

	"github.com/sabarisastha/annadanam/internal/eligibility"
	"github.com/sabarisastha/annadanam/internal/model"
	"github.com/sabarisastha/annadanam/internal/queue"
)

// EventPublisher sends confirmation events to the broker.
// *queue.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// QueueNotifier is a Notifier that turns confirmed bookings into broker
// events.
type QueueNotifier struct {
	pub      EventPublisher
	sessions *eligibility.Catalogue
}

// NewQueueNotifier returns a QueueNotifier. sessions resolves the group of
// each booked session.
func NewQueueNotifier(pub EventPublisher, sessions *eligibility.Catalogue) *QueueNotifier {
	return &QueueNotifier{pub: pub, sessions: sessions}
}

func (n *QueueNotifier) BookingConfirmed(ctx context.Context, b model.Booking) error {
	ev := queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		Name:        b.Name,
		Email:       b.Email,
		Phone:       b.Phone,
		Date:        b.Date,
		Session:     b.Session,
		ConfirmedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if s, ok := n.sessions.Lookup(b.Session); ok {
		ev.Group = string(s.Group)
	}
	return n.pub.Publish(ctx, ev)
}
