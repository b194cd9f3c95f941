// Package pgutil holds the small pgx interfaces and type conversions shared
// by the Postgres repositories.
package pgutil

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/wolfman30/clinic-booking/internal/scheduling"
)

const uniqueViolation = "23505"

// Querier is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can also open transactions.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
// An empty constraint matches any unique index.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// Decimal converts a NUMERIC column to a decimal. NULL and NaN become zero.
func Decimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// Numeric converts a decimal for use as a NUMERIC query argument.
func Numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).Set(d.Coefficient()), Exp: d.Exponent(), Valid: true}
}

// TimeOfDay converts a TIME column.
func TimeOfDay(t pgtype.Time) scheduling.TimeOfDay {
	if !t.Valid {
		return 0
	}
	return scheduling.TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond)
}

// Time converts a TimeOfDay for use as a TIME query argument.
func Time(t scheduling.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: time.Duration(t).Microseconds(), Valid: true}
}

// Date converts a calendar date for use as a DATE query argument.
func Date(t time.Time) pgtype.Date {
	return pgtype.Date{Time: scheduling.DateOf(t), Valid: true}
}
