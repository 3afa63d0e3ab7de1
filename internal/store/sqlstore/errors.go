package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/messagely/internal/core"
)

// PostgreSQL SQLSTATE codes the store reacts to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgStringTooLong       = "22001"
	pgAdminShutdown       = "57P01"
	pgCannotConnectNow    = "57P03"
)

// classify maps a driver error onto the domain taxonomy. The driver error
// stays reachable through errors.Is/As. Already classified errors pass through.
func classify(ctx context.Context, err error, op string) error {
	if err == nil {
		return nil
	}

	var ce *core.CoreError
	if errors.As(err, &ce) {
		return err
	}

	code, msg := kindOf(ctx, err)
	if code == "" {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, core.Wrap(code, err, msg))
}

func kindOf(ctx context.Context, err error) (code, msg string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return core.ErrCodeTimeout, "store call timed out"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return core.ErrCodeConflict, "record already exists"
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey:
			return core.ErrCodeValidation, "referenced record does not exist"
		case sqliteErr.Code == sqlite3.ErrConstraint:
			return core.ErrCodeValidation, "constraint violated"
		case sqliteErr.Code == sqlite3.ErrBusy,
			sqliteErr.Code == sqlite3.ErrLocked,
			sqliteErr.Code == sqlite3.ErrCantOpen,
			sqliteErr.Code == sqlite3.ErrIoErr:
			return core.ErrCodeStoreUnavailable, "store unavailable"
		}
		return "", ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return core.ErrCodeConflict, "record already exists"
		case pgErr.Code == pgForeignKeyViolation:
			return core.ErrCodeValidation, "referenced record does not exist"
		case pgErr.Code == pgNotNullViolation,
			pgErr.Code == pgCheckViolation,
			pgErr.Code == pgStringTooLong:
			return core.ErrCodeValidation, "constraint violated"
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == pgAdminShutdown,
			pgErr.Code == pgCannotConnectNow:
			return core.ErrCodeStoreUnavailable, "store unavailable"
		}
		return "", ""
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &netErr):
		return core.ErrCodeStoreUnavailable, "store unavailable"
	}

	return "", ""
}
