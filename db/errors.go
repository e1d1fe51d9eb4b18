package db

import (
	"strings"

	"github.com/lib/pq"

	"github.com/andruche/pgagent-yaml/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// The driver returns its own error values, so the message is matched as a fallback.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// annotate attaches the server's detail and hint of a PostgreSQL error so the
// CLI can print them under the message.
func annotate(err error) error {
	if err == nil {
		return nil
	}
	if IsDatabaseClosed(err) && !errors.Is(err, ErrDatabaseClosed) {
		return errors.Mark(err, ErrDatabaseClosed)
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	if pqErr.Detail != "" {
		err = errors.WithDetail(err, pqErr.Detail)
	}
	if pqErr.Hint != "" {
		err = errors.WithHint(err, pqErr.Hint)
	}
	return err
}

// SQLState returns the five-character SQLSTATE of a PostgreSQL error, or "".
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
