package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	apperrors "histotrek/pkg/errors"
)

// MySQL error numbers that signal a constraint violation.
var mysqlConstraintErrors = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry
	1451: true, // row is referenced
	1452: true, // referenced row missing
}

// Classify maps a driver error to a typed error carrying message.
// nil stays nil; errors that already carry a kind are wrapped unchanged.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return apperrors.Wrap(err, message)
	}

	return apperrors.New(KindOf(err), message, err)
}

// KindOf inspects driver specific error types.
func KindOf(err error) apperrors.Kind {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.KindNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "23" {
			return apperrors.KindConstraintViolation
		}
		if pqErr.Code.Class() == "08" {
			return apperrors.KindConnection
		}
		return apperrors.KindInternal
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "23") {
			return apperrors.KindConstraintViolation
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return apperrors.KindConnection
		}
		return apperrors.KindInternal
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if mysqlConstraintErrors[mysqlErr.Number] {
			return apperrors.KindConstraintViolation
		}
		return apperrors.KindInternal
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return apperrors.KindConstraintViolation
		case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked:
			return apperrors.KindConnection
		}
		return apperrors.KindInternal
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return apperrors.KindConnection
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.KindConnection
	}

	return apperrors.KindInternal
}
