// Package repository defines error types that are reused across the
// repositories. These sentinel values allow higher layers such as the
// allocator and the handlers to distinguish between different failure
// scenarios without inspecting driver errors themselves.
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicate is returned when an insert collides with the unique index
// on (date, session, active user). It is the database-level backstop for
// the in-transaction duplicate check.
var ErrDuplicate = errors.New("duplicate booking")

// MySQL server error numbers the repositories care about.
const (
	errDupEntry        = 1062
	errTooManyConns    = 1040
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

func isDupEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

// IsTransient reports whether err is an infrastructure failure after
// which the whole operation may be retried from scratch: lock waits,
// deadlocks, dropped connections, network errors and deadlines.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errLockWaitTimeout, errDeadlock, errTooManyConns:
			return true
		}
		return false
	}
	var ne net.Error
	return errors.As(err, &ne)
}
