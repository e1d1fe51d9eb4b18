package commands

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/andruche/pgagent-yaml/db"
)

// LiveStore is the database surface used by export and sync
type LiveStore interface {
	Fetch(ctx context.Context, query string) ([]db.Row, error)
	Now(ctx context.Context) (time.Time, error)
	WithinTransaction(ctx context.Context, fn db.TxFunc) error
}

// Connect opens the live store. Replaced in tests.
var Connect = func(ctx context.Context, info db.ConnInfo, log *zap.SugaredLogger) (LiveStore, func() error, error) {
	conn, err := db.Open(ctx, info, log)
	if err != nil {
		return nil, nil, err
	}
	return db.NewStore(conn, log), conn.Close, nil
}

// connectChecked connects and verifies the pgagent extension version
func connectChecked(ctx context.Context, info db.ConnInfo, ignoreVersion bool, log *zap.SugaredLogger) (LiveStore, func() error, error) {
	store, closeFn, err := Connect(ctx, info, log)
	if err != nil {
		return nil, nil, err
	}
	if _, err := db.CheckVersion(ctx, store, ignoreVersion, log); err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}
