// Package service holds the booking allocator: the read-only slot
// aggregator and the single reservation transaction that creates bookings.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sabarisastha/annadanam/internal/eligibility"
	"github.com/sabarisastha/annadanam/internal/model"
	"github.com/sabarisastha/annadanam/internal/repository"
)

// Store is the data store the allocator depends on. *repository.BookingRepo
// satisfies it.
type Store interface {
	SlotCounts(ctx context.Context, date string) (map[string]int, error)
	WithGroupLock(ctx context.Context, date, group string, fn func(repository.BookingTx) error) error
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	ListConfirmed(ctx context.Context, date string, sessions []string) ([]model.Booking, error)
}

// Notifier is told about every confirmed booking after it commits.
// Delivery is best-effort.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b model.Booking) error
}

// Limits are the capacity ceilings. SessionCapacity applies to every
// session; GroupCap is shared by all sessions of a group on one date.
type Limits struct {
	SessionCapacity int
	GroupCap        int
}

func (l Limits) validate() error {
	if l.SessionCapacity <= 0 {
		return fmt.Errorf("session capacity must be positive, got %d", l.SessionCapacity)
	}
	if l.GroupCap <= 0 {
		return fmt.Errorf("group cap must be positive, got %d", l.GroupCap)
	}
	return nil
}

// Allocator serves slot reads and reservations.
type Allocator struct {
	store    Store
	engine   *eligibility.Engine
	limits   Limits
	notifier Notifier
	log      *zap.Logger

	notifyTimeout time.Duration
	retryBackoff  time.Duration
}

// Option customises an Allocator.
type Option func(*Allocator)

// WithNotifier sets the post-commit notifier.
func WithNotifier(n Notifier) Option { return func(a *Allocator) { a.notifier = n } }

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option { return func(a *Allocator) { a.log = l } }

// WithNotifyTimeout bounds how long Reserve waits for the notifier.
func WithNotifyTimeout(d time.Duration) Option { return func(a *Allocator) { a.notifyTimeout = d } }

// WithRetryBackoff sets the first delay between ReserveWithRetry attempts.
// Later delays double.
func WithRetryBackoff(d time.Duration) Option { return func(a *Allocator) { a.retryBackoff = d } }

// NewAllocator validates limits and builds an Allocator.
func NewAllocator(store Store, engine *eligibility.Engine, limits Limits, opts ...Option) (*Allocator, error) {
	if store == nil || engine == nil {
		return nil, errors.New("allocator: store and engine are required")
	}
	if err := limits.validate(); err != nil {
		return nil, fmt.Errorf("allocator: %w", err)
	}
	a := &Allocator{
		store:         store,
		engine:        engine,
		limits:        limits,
		log:           zap.NewNop(),
		notifyTimeout: 2 * time.Second,
		retryBackoff:  50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Engine exposes the eligibility engine for read-only callers.
func (a *Allocator) Engine() *eligibility.Engine { return a.engine }

// Limits returns the configured capacity ceilings.
func (a *Allocator) Limits() Limits { return a.limits }

// Slots returns the occupancy of every configured session on date. All
// counts come from one aggregated read. Status reflects capacity only;
// Bookable is the advisory eligibility of the slot right now.
func (a *Allocator) Slots(ctx context.Context, date string) (*model.DaySlots, error) {
	d, err := eligibility.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	counts, err := a.store.SlotCounts(ctx, d.String())
	if err != nil {
		return nil, storeErr("slot counts", err)
	}

	cat := a.engine.Sessions()
	out := &model.DaySlots{Date: d.String()}
	perGroup := make(map[eligibility.Group]int)
	for _, s := range cat.Sessions() {
		n := counts[s.Label]
		perGroup[s.Group] += n
		status := model.SlotOpen
		if n >= a.limits.SessionCapacity {
			status = model.SlotClosed
		}
		out.Slots = append(out.Slots, model.Slot{
			Date:        d.String(),
			Session:     s.Label,
			Group:       string(s.Group),
			Capacity:    a.limits.SessionCapacity,
			BookedCount: n,
			Status:      status,
			Bookable:    a.engine.Bookable(d, s.Label),
		})
	}
	for _, g := range cat.Groups() {
		booked := perGroup[g]
		out.Groups = append(out.Groups, model.GroupOccupancy{
			Group:     string(g),
			Cap:       a.limits.GroupCap,
			Booked:    booked,
			Remaining: max(a.limits.GroupCap-booked, 0),
		})
	}
	return out, nil
}

// ReserveRequest carries the inputs of a reservation. UserID comes from
// the identity collaborator, never from the request body.
type ReserveRequest struct {
	Date    string
	Session string
	UserID  string
	Name    string
	Email   string
	Phone   string
}

func (r ReserveRequest) normalized() ReserveRequest {
	r.Date = strings.TrimSpace(r.Date)
	r.Session = strings.TrimSpace(r.Session)
	r.UserID = strings.TrimSpace(r.UserID)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	return r
}

// Reserve is the only path that creates a booking. Eligibility, session
// capacity, group cap and the duplicate check all run while the
// (date, group) lock is held, and the insert happens in the same
// transaction. On any failure no row is written.
func (a *Allocator) Reserve(ctx context.Context, req ReserveRequest) (*model.Booking, error) {
	req = req.normalized()
	if req.UserID == "" {
		return nil, ErrNotAuthenticated
	}
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidRequest)
	}
	date, err := eligibility.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	sess, ok := a.engine.Sessions().Lookup(req.Session)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrNotEligible, eligibility.ErrUnknownSession)
	}
	// Cheap rejection before touching the store; repeated under the lock.
	if err := a.engine.Check(date, sess.Label); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotEligible, err)
	}

	day := date.String()
	labels := a.engine.Sessions().Labels(sess.Group)
	var booking *model.Booking
	err = a.store.WithGroupLock(ctx, day, string(sess.Group), func(tx repository.BookingTx) error {
		if err := a.engine.Check(date, sess.Label); err != nil {
			return fmt.Errorf("%w: %w", ErrNotEligible, err)
		}
		counts, err := tx.CountConfirmed(ctx, day, labels)
		if err != nil {
			return err
		}
		if counts[sess.Label] >= a.limits.SessionCapacity {
			return ErrSlotFull
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		if total >= a.limits.GroupCap {
			return ErrGroupFull
		}
		dup, err := tx.HasConfirmed(ctx, day, sess.Label, req.UserID)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicateBooking
		}

		b := &model.Booking{
			ID:        uuid.NewString(),
			CreatedAt: a.engine.Now().UTC().Truncate(time.Microsecond),
			Date:      day,
			Session:   sess.Label,
			UserID:    req.UserID,
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Qty:       1,
			Status:    model.BookingConfirmed,
		}
		if err := tx.Insert(ctx, b); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateBooking
			}
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	a.log.Info("booking confirmed",
		zap.String("booking_id", booking.ID),
		zap.String("user_id", booking.UserID),
		zap.String("date", booking.Date),
		zap.String("session", booking.Session),
	)
	a.notify(ctx, *booking)
	return booking, nil
}

// ReserveWithRetry calls Reserve up to attempts times, retrying only
// ErrTransientStore. Every attempt re-runs the whole protocol, so
// eligibility and capacity are judged against fresh state.
func (a *Allocator) ReserveWithRetry(ctx context.Context, req ReserveRequest, attempts int) (*model.Booking, error) {
	if attempts < 1 {
		attempts = 1
	}
	backoff := a.retryBackoff
	var lastErr error
	for i := 0; i < attempts; i++ {
		b, err := a.Reserve(ctx, req)
		if err == nil || !errors.Is(err, ErrTransientStore) {
			return b, err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		a.log.Warn("transient store error, retrying reservation",
			zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTransientStore, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

// MyBookings lists the caller's bookings, newest first.
func (a *Allocator) MyBookings(ctx context.Context, userID string) ([]model.Booking, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	list, err := a.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeErr("list by user", err)
	}
	return list, nil
}

// DayBookings lists confirmed bookings for one group on date, ordered by
// session and booking time.
func (a *Allocator) DayBookings(ctx context.Context, date, group string) ([]model.Booking, error) {
	d, err := eligibility.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	g, err := eligibility.ParseGroup(strings.TrimSpace(group))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	list, err := a.store.ListConfirmed(ctx, d.String(), a.engine.Sessions().Labels(g))
	if err != nil {
		return nil, storeErr("list confirmed", err)
	}
	return list, nil
}

// Cancel is not offered: no cancellation rules exist yet.
func (a *Allocator) Cancel(ctx context.Context, userID, bookingID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNotAuthenticated
	}
	return ErrCancellationUnsupported
}

func (a *Allocator) notify(ctx context.Context, b model.Booking) {
	if a.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.notifyTimeout)
	defer cancel()

	// The notifier may ignore nctx; waiting on it is still bounded.
	done := make(chan error, 1)
	go func() { done <- a.notifier.BookingConfirmed(nctx, b) }()
	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("booking notification failed",
				zap.String("booking_id", b.ID), zap.Error(err))
		}
	case <-nctx.Done():
		a.log.Warn("booking notification timed out",
			zap.String("booking_id", b.ID), zap.Duration("timeout", a.notifyTimeout))
	}
}

// classify maps a failure from inside the reservation transaction onto
// the allocator's error kinds.
func classify(err error) error {
	for _, kind := range []error{ErrNotEligible, ErrSlotFull, ErrGroupFull, ErrDuplicateBooking} {
		if errors.Is(err, kind) {
			return err
		}
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrDuplicateBooking
	}
	return storeErr("reserve", err)
}

func storeErr(op string, err error) error {
	if repository.IsTransient(err) {
		return fmt.Errorf("%w: %s: %v", ErrTransientStore, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
