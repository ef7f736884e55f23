package pkg

import (
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeUniqueViolation      = "23505"
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeAdminShutdown        = "57P01"
	pgCodeCannotConnectNow     = "57P03"
	// class 08, connection exception
	pgClassConnectionException = "08"
)

func IsUniqueViolationError(err error) bool {
	return hasPgCode(err, pgCodeUniqueViolation)
}

// IsTransientDBError reports whether err is a datastore failure that is
// worth retrying: the database could not be reached, the connection dropped,
// or the server asked for the transaction to be retried.
func IsTransientDBError(err error) bool {
	if err == nil {
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeAdminShutdown, pgCodeCannotConnectNow:
			return true
		}
		return strings.HasPrefix(pgErr.Code, pgClassConnectionException)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
