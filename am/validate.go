package am

import "github.com/andruche/pgagent-yaml/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Database.DBName == "" {
		return errors.WithHint(
			errors.New("database.dbname cannot be empty"),
			"pass -d/--dbname, set PGDATABASE or database.dbname in pgagent-yaml.toml",
		)
	}
	if c.Database.Port <= 0 {
		return errors.Newf("database.port must be positive, got %d", c.Database.Port)
	}
	if c.Database.ConnectTimeoutSeconds < 0 {
		return errors.Newf("database.connect_timeout_seconds must be >= 0, got %d", c.Database.ConnectTimeoutSeconds)
	}
	if c.Sync.WatchDebounceMS < 0 {
		return errors.Newf("sync.watch_debounce_ms must be >= 0, got %d", c.Sync.WatchDebounceMS)
	}

	// Watching without either flag would block on the prompt after every change
	if c.Sync.Watch && !c.Sync.DryRun && !c.Sync.Yes {
		return errors.WithHint(
			errors.New("sync.watch requires sync.dry_run or sync.yes"),
			"add --dry-run or --yes",
		)
	}

	return nil
}
