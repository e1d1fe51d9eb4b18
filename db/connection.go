package db

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/logger"
)

// ConnInfo holds libpq connection parameters. Empty fields are left to the
// driver defaults (and the PG* environment).
type ConnInfo struct {
	Host            string
	Port            int
	DBName          string
	User            string
	Password        string
	SSLMode         string
	ConnectTimeout  time.Duration
	ApplicationName string
}

// DSN renders the parameters as a libpq keyword/value string.
func (c ConnInfo) DSN() string {
	params := map[string]string{
		"host":             c.Host,
		"dbname":           c.DBName,
		"user":             c.User,
		"password":         c.Password,
		"sslmode":          c.SSLMode,
		"application_name": c.ApplicationName,
	}
	if c.Port > 0 {
		params["port"] = strconv.Itoa(c.Port)
	}
	if c.ConnectTimeout > 0 {
		params["connect_timeout"] = strconv.Itoa(int(c.ConnectTimeout / time.Second))
	}

	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+quoteDSNValue(params[k]))
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue quotes a value when libpq would otherwise split or unescape it.
func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// String is the DSN with the password masked, for logs.
func (c ConnInfo) String() string {
	if c.Password != "" {
		c.Password = "****"
	}
	return c.DSN()
}

// Open connects to PostgreSQL and verifies the connection.
// If log is provided, logs the connection; otherwise operates silently.
func Open(ctx context.Context, info ConnInfo, log *zap.SugaredLogger) (*sql.DB, error) {
	log = logger.OrNop(log)
	log.Debugw("Opening database",
		logger.FieldHost, info.Host,
		logger.FieldPort, info.Port,
		logger.FieldDatabase, info.DBName)

	db, err := sql.Open("postgres", info.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.WithHintf(
			errors.Wrapf(annotate(err), "failed to connect to %s", info.String()),
			"check the connection flags -h -p -d -U -W or the PG* environment variables",
		)
	}

	log.Infow("Database opened",
		logger.FieldHost, info.Host,
		logger.FieldDatabase, info.DBName)
	return db, nil
}
