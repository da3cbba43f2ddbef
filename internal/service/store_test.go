package service

import (
	"context"
	"sort"
	"sync"

	"github.com/sabarisastha/annadanam/internal/model"
	"github.com/sabarisastha/annadanam/internal/repository"
)

// memStore is an in-memory Store. WithGroupLock serializes per
// (date, group) and only publishes a transaction's inserts when fn
// returns nil, which mirrors the MySQL implementation closely enough to
// exercise the allocator's invariants.
type memStore struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	bookings []model.Booking

	lockCalls int
	lockErrs  []error // returned, in order, by the next WithGroupLock calls
	onLock    func(call int)
	readErr   error
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{locks: make(map[string]*sync.Mutex)}
}

func (s *memStore) groupLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *memStore) nextLockErr() error {
	s.mu.Lock()
	s.lockCalls++
	call, hook := s.lockCalls, s.onLock
	var err error
	if len(s.lockErrs) > 0 {
		err = s.lockErrs[0]
		s.lockErrs = s.lockErrs[1:]
	}
	s.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return err
}

func (s *memStore) seed(date, session string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.bookings = append(s.bookings, model.Booking{
			ID:      "seed",
			Date:    date,
			Session: session,
			UserID:  "seed-user",
			Qty:     1,
			Status:  model.BookingConfirmed,
		})
	}
}

func (s *memStore) count(date, session string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bookings {
		if b.Date == date && b.Session == session && b.Status == model.BookingConfirmed {
			n++
		}
	}
	return n
}

func (s *memStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *memStore) SlotCounts(_ context.Context, date string) (map[string]int, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for _, b := range s.bookings {
		if b.Date == date && b.Status == model.BookingConfirmed {
			out[b.Session]++
		}
	}
	return out, nil
}

func (s *memStore) WithGroupLock(_ context.Context, date, group string, fn func(repository.BookingTx) error) error {
	if err := s.nextLockErr(); err != nil {
		return err
	}
	l := s.groupLock(date + "/" + group)
	l.Lock()
	defer l.Unlock()

	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	s.bookings = append(s.bookings, tx.pending...)
	s.mu.Unlock()
	return nil
}

func (s *memStore) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Booking{}
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) ListConfirmed(_ context.Context, date string, sessions []string) ([]model.Booking, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	want := map[string]bool{}
	for _, l := range sessions {
		want[l] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Booking{}
	for _, b := range s.bookings {
		if b.Date == date && want[b.Session] && b.Status == model.BookingConfirmed {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Session < out[j].Session })
	return out, nil
}

type memTx struct {
	s       *memStore
	pending []model.Booking
}

func (t *memTx) CountConfirmed(_ context.Context, date string, sessions []string) (map[string]int, error) {
	want := map[string]bool{}
	for _, l := range sessions {
		want[l] = true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := map[string]int{}
	for _, b := range t.s.bookings {
		if b.Date == date && want[b.Session] && b.Status == model.BookingConfirmed {
			out[b.Session]++
		}
	}
	return out, nil
}

func (t *memTx) HasConfirmed(_ context.Context, date, session, userID string) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, b := range t.s.bookings {
		if b.Date == date && b.Session == session && b.UserID == userID && b.Status == model.BookingConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Insert(_ context.Context, b *model.Booking) error {
	if t.s.insertErr != nil {
		return t.s.insertErr
	}
	t.pending = append(t.pending, *b)
	return nil
}
