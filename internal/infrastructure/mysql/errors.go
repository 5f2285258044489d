package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"net"

	mysqldriver "github.com/go-sql-driver/mysql"

	"courierhub/internal/errors"
)

// Server error numbers that mean the statement did not take effect and may succeed later.
const (
	errTooManyConnections = 1040
	errServerShutdown     = 1053
	errLockWaitTimeout    = 1205
	errDeadlock           = 1213
)

// IsTransient reports whether err comes from an unreachable or overloaded backend
// rather than from the statement itself.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, driver.ErrBadConn) ||
		stderrors.Is(err, mysqldriver.ErrInvalidConn) ||
		stderrors.Is(err, sql.ErrConnDone) ||
		stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var mysqlErr *mysqldriver.MySQLError
	if stderrors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case errTooManyConnections, errServerShutdown, errLockWaitTimeout, errDeadlock:
			return true
		}
		return false
	}

	var netErr net.Error
	return stderrors.As(err, &netErr)
}

// Classify converts transient driver failures into StorageUnavailableError and
// returns every other error unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.IsStorageUnavailableError(err); ok {
		return err
	}
	if IsTransient(err) {
		return errors.NewStorageUnavailableError("storage unavailable", err)
	}
	return err
}

// IsDeadlock reports whether the server aborted the transaction to break a lock
// cycle or lock wait. The whole unit of work may be retried.
func IsDeadlock(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	if stderrors.As(err, &mysqlErr) {
		return mysqlErr.Number == errDeadlock || mysqlErr.Number == errLockWaitTimeout
	}
	return false
}
