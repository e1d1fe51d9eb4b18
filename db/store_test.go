package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andruche/pgagent-yaml/errors"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewStore(sqlDB, nil), mock
}

func TestFetchConvertsBytes(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select jobid as id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "enabled", "minutes"}).
			AddRow(int64(1), []byte("nightly"), true, []byte("{t,f}")).
			AddRow(int64(2), "weekly", false, nil))

	rows, err := store.Fetch(context.Background(), "select jobid as id from pgagent.pga_job")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"id": int64(1), "name": "nightly", "enabled": true, "minutes": "{t,f}"}, rows[0])
	assert.Nil(t, rows[1]["minutes"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("select").WillReturnError(errors.New("relation does not exist"))

	_, err := store.Fetch(context.Background(), "select 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query failed: relation does not exist")
}

func TestWithinTransactionCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("insert into pgagent.pga_job").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into pgagent.pga_jobstep").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.WithinTransaction(context.Background(), func(ctx context.Context, tx Executor) error {
		if _, err := tx.ExecContext(ctx, "insert into pgagent.pga_job(jobname) values ('a');"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "insert into pgagent.pga_jobstep(jstname) values ('s');")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("insert").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := store.WithinTransaction(context.Background(), func(ctx context.Context, tx Executor) error {
		_, err := tx.ExecContext(ctx, "insert into pgagent.pga_job(jobname) values ('a');")
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionBeginFails(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection lost"))

	called := false
	err := store.WithinTransaction(context.Background(), func(context.Context, Executor) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "begin transaction")
}

func TestNow(t *testing.T) {
	store, mock := newMockStore(t)
	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("select now").WillReturnRows(sqlmock.NewRows([]string{"now"}).AddRow(want))

	got, err := store.Now(context.Background())
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		ignore  bool
		wantErr bool
	}{
		{"supported", sqlmock.NewRows([]string{"version"}).AddRow("4.2"), false, false},
		{"lower bound", sqlmock.NewRows([]string{"version"}).AddRow("3.4"), false, false},
		{"too old", sqlmock.NewRows([]string{"version"}).AddRow("3.3"), false, true},
		{"too new", sqlmock.NewRows([]string{"version"}).AddRow("5.0"), false, true},
		{"not installed", sqlmock.NewRows([]string{"version"}), false, true},
		{"ignored", sqlmock.NewRows([]string{"version"}).AddRow("5.0"), true, false},
		{"garbage", sqlmock.NewRows([]string{"version"}).AddRow("four"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectQuery("select extversion").WillReturnRows(tt.rows)

			_, err := CheckVersion(context.Background(), store, tt.ignore, nil)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrUnsupportedVersion))
				assert.Equal(t, "use --ignore-version to try anyway", errors.Hint(err))
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
