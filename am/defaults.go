package am

import (
	"time"

	"github.com/spf13/viper"

	"github.com/andruche/pgagent-yaml/db"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.dbname", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "")
	v.SetDefault("database.connect_timeout_seconds", 10)
	v.SetDefault("database.application_name", "pgagent-yaml")

	v.SetDefault("export.out_dir", "")
	v.SetDefault("export.clean", false)
	v.SetDefault("export.include_schedule_start_end", false)
	v.SetDefault("export.ignore_version", false)

	v.SetDefault("sync.source", "")
	v.SetDefault("sync.dry_run", false)
	v.SetDefault("sync.echo_queries", false)
	v.SetDefault("sync.yes", false)
	v.SetDefault("sync.ignore_version", false)
	v.SetDefault("sync.default_job_class", "Routine Maintenance")
	v.SetDefault("sync.watch", false)
	v.SetDefault("sync.watch_debounce_ms", 500)

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}

// envFallbacks lists the variables bound next to the PGAGENT_YAML_* ones.
// The first set variable wins.
var envFallbacks = map[string][]string{
	"database.host":     {"PGAGENT_YAML_DATABASE_HOST", "PGHOST"},
	"database.port":     {"PGAGENT_YAML_DATABASE_PORT", "PGPORT"},
	"database.dbname":   {"PGAGENT_YAML_DATABASE_DBNAME", "PGDATABASE"},
	"database.user":     {"PGAGENT_YAML_DATABASE_USER", "PGUSER"},
	"database.password": {"PGAGENT_YAML_DATABASE_PASSWORD", "PGPASSWORD"},
	"database.sslmode":  {"PGAGENT_YAML_DATABASE_SSLMODE", "PGSSLMODE"},
	"export.clean":      {"PGAGENT_YAML_EXPORT_CLEAN", "PGAGENT_YAML_AUTOCLEAN"},
}

// BindEnvVars binds the libpq variables and PGAGENT_YAML_AUTOCLEAN
func BindEnvVars(v *viper.Viper) {
	for key, names := range envFallbacks {
		input := append([]string{key}, names...)
		_ = v.BindEnv(input...)
	}
}

// ConnInfo converts the database section to connection parameters
func (c DatabaseConfig) ConnInfo() db.ConnInfo {
	return db.ConnInfo{
		Host:            c.Host,
		Port:            c.Port,
		DBName:          c.DBName,
		User:            c.User,
		Password:        c.Password,
		SSLMode:         c.SSLMode,
		ConnectTimeout:  time.Duration(c.ConnectTimeoutSeconds) * time.Second,
		ApplicationName: c.ApplicationName,
	}
}

// WatchDebounce returns the watch debounce as a duration
func (c SyncConfig) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// Masked returns a copy of the configuration with secrets replaced
func (c Config) Masked() Config {
	if c.Database.Password != "" {
		c.Database.Password = "********"
	}
	return c
}
