package db

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andruche/pgagent-yaml/errors"
)

func TestDSN(t *testing.T) {
	t.Run("skips empty parameters", func(t *testing.T) {
		info := ConnInfo{Host: "localhost", Port: 5432, DBName: "app"}
		assert.Equal(t, "dbname=app host=localhost port=5432", info.DSN())
	})

	t.Run("quotes values libpq would split", func(t *testing.T) {
		info := ConnInfo{
			DBName:          "app",
			User:            "o'brien",
			Password:        `p a\ss`,
			SSLMode:         "disable",
			ConnectTimeout:  10 * time.Second,
			ApplicationName: "pgagent-yaml",
		}
		assert.Equal(t,
			`application_name=pgagent-yaml connect_timeout=10 dbname=app password='p a\\ss' sslmode=disable user='o\'brien'`,
			info.DSN())
	})

	t.Run("masks password", func(t *testing.T) {
		info := ConnInfo{DBName: "app", Password: "secret"}
		assert.Equal(t, "dbname=app password=****", info.String())
		assert.Equal(t, "secret", info.Password)
	})
}

func TestOpenFailsWithHint(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	db, err := Open(ctx, ConnInfo{Host: "127.0.0.1", Port: 1, DBName: "none", SSLMode: "disable", ConnectTimeout: time.Second}, nil)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to connect to")
	assert.Contains(t, errors.Hint(err), "-h -p -d -U -W")
}

func TestAnnotate(t *testing.T) {
	assert.Nil(t, annotate(nil))

	plain := errors.New("boom")
	assert.Equal(t, plain, annotate(plain))

	pqErr := &pq.Error{
		Code:    "23505",
		Message: "duplicate key value violates unique constraint",
		Detail:  "Key (jobname)=(x) already exists.",
		Hint:    "rename the job",
	}
	err := annotate(errors.Wrap(pqErr, "exec"))
	assert.Equal(t, "rename the job", errors.Hint(err))
	assert.Equal(t, "23505", SQLState(err))
	assert.Equal(t, "", SQLState(plain))

	closed := annotate(errors.New("sql: database is closed"))
	assert.True(t, errors.Is(closed, ErrDatabaseClosed))
}

func TestIsDatabaseClosed(t *testing.T) {
	assert.False(t, IsDatabaseClosed(nil))
	assert.True(t, IsDatabaseClosed(ErrDatabaseClosed))
	assert.True(t, IsDatabaseClosed(errors.Wrap(ErrDatabaseClosed, "fetch")))
	assert.True(t, IsDatabaseClosed(errors.New("sql: database is closed")))
	assert.False(t, IsDatabaseClosed(errors.New("connection refused")))
}
