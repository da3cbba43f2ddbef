package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sabarisastha/annadanam/internal/model"
)

// bookingColumns selects a booking row in the shape of model.Booking. The
// date is formatted in SQL so it scans as a plain YYYY-MM-DD string.
const bookingColumns = `id, created_at, DATE_FORMAT(booking_date, '%Y-%m-%d') AS booking_date,
	session, user_id, name, email, phone, qty, status`

// BookingTx is the set of operations available while a (date, group) lock
// is held. Every read observes the latest committed state because all
// writers for the same group serialize on the lock row.
type BookingTx interface {
	// CountConfirmed returns confirmed booking counts per session for the
	// given sessions on date. Sessions without bookings are absent.
	CountConfirmed(ctx context.Context, date string, sessions []string) (map[string]int, error)
	// HasConfirmed reports whether userID already holds a confirmed
	// booking for (date, session).
	HasConfirmed(ctx context.Context, date, session, userID string) (bool, error)
	// Insert stores b. It returns ErrDuplicate when the unique index
	// rejects the row.
	Insert(ctx context.Context, b *model.Booking) error
}

// BookingRepo provides the storage side of the allocator: the aggregated
// slot read, the locked reservation transaction and the listing queries.
// All timestamps are stored in UTC.
type BookingRepo struct {
	db *sqlx.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{db: db} }

type sessionCount struct {
	Session string `db:"session"`
	N       int    `db:"n"`
}

// SlotCounts returns confirmed booking counts per session on date, taken
// from a single aggregated query so that every count comes from the same
// snapshot.
func (r *BookingRepo) SlotCounts(ctx context.Context, date string) (map[string]int, error) {
	const q = `SELECT session, COUNT(*) AS n
	           FROM annadanam_bookings
	           WHERE booking_date = ? AND status = 'confirmed'
	           GROUP BY session`
	var rows []sessionCount
	if err := r.db.SelectContext(ctx, &rows, q, date); err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

// WithGroupLock runs fn inside a READ COMMITTED transaction that holds an
// exclusive lock on the (date, group) lock row. The upsert takes the row
// lock directly, so concurrent first reservations for a group queue
// behind each other instead of deadlocking. The transaction commits when
// fn returns nil and rolls back otherwise.
func (r *BookingRepo) WithGroupLock(ctx context.Context, date, group string, fn func(BookingTx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const lock = `INSERT INTO annadanam_group_locks (booking_date, grp) VALUES (?, ?)
	              ON DUPLICATE KEY UPDATE grp = grp`
	if _, err := tx.ExecContext(ctx, lock, date, group); err != nil {
		return fmt.Errorf("lock group %s/%s: %w", date, group, err)
	}

	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// ListByUser returns every booking owned by userID, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + `
	      FROM annadanam_bookings
	      WHERE user_id = ?
	      ORDER BY created_at DESC`
	out := []model.Booking{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// ListConfirmed returns confirmed bookings on date for the given sessions,
// ordered by session and then by booking time.
func (r *BookingRepo) ListConfirmed(ctx context.Context, date string, sessions []string) ([]model.Booking, error) {
	out := []model.Booking{}
	if len(sessions) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+bookingColumns+`
	      FROM annadanam_bookings
	      WHERE booking_date = ? AND status = 'confirmed' AND session IN (?)
	      ORDER BY session, created_at`, date, sessions)
	if err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

type bookingTx struct {
	tx *sqlx.Tx
}

func (t *bookingTx) CountConfirmed(ctx context.Context, date string, sessions []string) (map[string]int, error) {
	if len(sessions) == 0 {
		return map[string]int{}, nil
	}
	q, args, err := sqlx.In(`SELECT session, COUNT(*) AS n
	           FROM annadanam_bookings
	           WHERE booking_date = ? AND status = 'confirmed' AND session IN (?)
	           GROUP BY session`, date, sessions)
	if err != nil {
		return nil, err
	}
	var rows []sessionCount
	if err := t.tx.SelectContext(ctx, &rows, t.tx.Rebind(q), args...); err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func (t *bookingTx) HasConfirmed(ctx context.Context, date, session, userID string) (bool, error) {
	const q = `SELECT EXISTS(
	               SELECT 1 FROM annadanam_bookings
	               WHERE booking_date = ? AND session = ? AND user_id = ? AND status = 'confirmed')`
	var exists bool
	if err := t.tx.GetContext(ctx, &exists, q, date, session, userID); err != nil {
		return false, err
	}
	return exists, nil
}

func (t *bookingTx) Insert(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO annadanam_bookings
	           (id, created_at, booking_date, session, user_id, name, email, phone, qty, status)
	           VALUES (:id, :created_at, :booking_date, :session, :user_id, :name, :email, :phone, :qty, :status)`
	if _, err := t.tx.NamedExecContext(ctx, q, b); err != nil {
		if isDupEntry(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func toCountMap(rows []sessionCount) map[string]int {
	m := make(map[string]int, len(rows))
	for _, row := range rows {
		m[row.Session] = row.N
	}
	return m
}
