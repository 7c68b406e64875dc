// Package postgres holds the database plumbing shared by the repositories:
// opening the instrumented handle, running transactions and translating
// driver errors into domain error kinds.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Open(ctx context.Context, url string, maxOpenConns int) (*sql.DB, error) {
	db, err := telemetry.OpenDB("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// WithTx runs fn inside a transaction, committing if fn returns nil and
// rolling back otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Translate(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return Translate(err, "commit transaction")
	}
	return nil
}

// Translate maps a driver error onto the domain taxonomy. Errors that are
// already domain errors pass through untouched.
func Translate(err error, op string) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Error{Kind: domain.KindNotFound, Msg: op, Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeForeignKeyViolation:
			return &domain.Error{Kind: domain.KindInvalidState, Msg: op, Err: err}
		case codeUniqueViolation:
			return &domain.Error{Kind: domain.KindConflict, Msg: op, Err: err}
		case codeCheckViolation:
			return &domain.Error{Kind: domain.KindInvalidArgument, Msg: op, Err: err}
		case codeSerialization, codeDeadlock:
			return domain.Unavailable(op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return domain.Unavailable(op, err)
}

// IsConstraint reports whether err is a pq error raised by the named constraint.
func IsConstraint(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint == name
	}
	return false
}

// Transactor hands services a transaction without exposing *sql.DB.
type Transactor struct {
	DB *sql.DB
}

func (t Transactor) InTx(ctx context.Context, fn func(tx DBTX) error) error {
	return WithTx(ctx, t.DB, func(tx *sql.Tx) error { return fn(tx) })
}
