// Package db connects to PostgreSQL and exposes the small surface the
// reconciliation needs: fetch rows, run statements in a scoped transaction,
// read the server clock.
package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/logger"
)

// Row is one result row keyed by column name. Text and byte columns are
// returned as string.
type Row = map[string]any

// Executor runs one statement.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TxFunc is the body of a scoped transaction.
type TxFunc func(ctx context.Context, tx Executor) error

// Store runs literal SQL text against a database. Statements are never
// altered, reordered or retried.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewStore wraps an open database.
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{db: db, log: logger.OrNop(log)}
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

// Fetch runs a query and returns every row.
func (s *Store) Fetch(ctx context.Context, query string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(annotate(err), "query failed")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read columns")
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(annotate(err), "failed to iterate rows")
	}

	s.log.Debugw("Fetched rows", logger.FieldCount, len(out))
	return out, nil
}

// WithinTransaction runs fn inside one transaction: committed when fn returns
// nil, rolled back otherwise.
func (s *Store) WithinTransaction(ctx context.Context, fn TxFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(annotate(err), "begin transaction")
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Warnw("Rollback failed", logger.FieldError, rbErr)
		}
		return annotate(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(annotate(err), "commit transaction")
	}
	return nil
}

// Now returns the current server time.
func (s *Store) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := s.db.QueryRowContext(ctx, "select now()").Scan(&now); err != nil {
		return time.Time{}, errors.Wrap(annotate(err), "failed to read server time")
	}
	return now, nil
}
