package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/op/go-logging"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"medeasy/pharmacy/domain"
)

var log = logging.MustGetLogger("store")

// timeLayout is fixed width so that text ordering in SQLite matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
}

// Store is the durable record store for medicines, sales and users.
type Store struct {
	db *sqlx.DB
}

// New constructs a Store over an open database.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB returns the pool for operations that run outside a transaction.
func (s *Store) DB() Querier {
	return s.db
}

// WithTx runs fn inside a single transaction. Any error or panic rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapErr("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Errorf("rollback failed: %v", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return mapErr("commit transaction", err)
	}
	return nil
}

// isDBClosed reports a query against a closed *sql.DB. database/sql returns an
// unexported error for that case, so only its message can be matched.
func isDBClosed(err error) bool {
	return strings.Contains(err.Error(), "sql: database is closed")
}

// mapErr translates driver errors into the domain error taxonomy, keeping the cause.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, sql.ErrConnDone) || isDBClosed(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
	}

	var se *sqlite.Error
	if !errors.As(err, &se) {
		return fmt.Errorf("%s: %w", op, err)
	}
	code := se.Code()
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrAlreadyExists, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrNotFound, err)
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidInput, err)
	}
	switch code & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		msg := se.Error()
		if strings.Contains(msg, "UNIQUE") || strings.Contains(msg, "PRIMARY KEY") {
			return fmt.Errorf("%s: %w: %w", op, domain.ErrAlreadyExists, err)
		}
		if strings.Contains(msg, "FOREIGN KEY") {
			return fmt.Errorf("%s: %w: %w", op, domain.ErrNotFound, err)
		}
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidInput, err)
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrPreconditionFailed, err)
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL,
		sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_READONLY:
		log.Errorf("%s: storage failure: %v", op, err)
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(domain.DateLayout), Valid: true}
}

func parseDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	return domain.ParseDate(ns.String)
}

// likePattern builds a case-insensitive substring pattern with LIKE wildcards escaped.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(query)) + "%"
}
