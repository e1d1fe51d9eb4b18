// Package commands implements the pgagent-yaml command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/andruche/pgagent-yaml/am"
	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/logger"
)

// RootCmd is the pgagent-yaml entry point
var RootCmd = &cobra.Command{
	Use:   "pgagent-yaml",
	Short: "Keep pgAgent jobs in YAML files",
	Long: `pgagent-yaml exports pgAgent jobs from PostgreSQL into one YAML file per
job and syncs the files back, changing only what differs.

Configuration sources (later overrides earlier):
  1. Default values
  2. User config (~/.pgagent-yaml/config.toml)
  3. Project config (pgagent-yaml.toml, searched up from the working directory)
  4. Environment variables (PGAGENT_YAML_*, PGHOST, PGPORT, PGDATABASE, PGUSER, PGPASSWORD)
  5. Command line flags

Examples:
  pgagent-yaml export -d mydb --out-dir jobs
  pgagent-yaml sync -d mydb jobs --dry-run
  pgagent-yaml sync -d mydb jobs/nightly_backup.yaml --yes`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initLogging,
}

// rootFlagKeys maps config keys to the persistent flags
var rootFlagKeys = map[string]string{
	"log.verbosity":     "verbose",
	"log.json":          "json-log",
	"database.dbname":   "dbname",
	"database.host":     "host",
	"database.port":     "port",
	"database.user":     "user",
	"database.password": "password",
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	flags.Bool("json-log", false, "Write logs as JSON")

	// -h is the libpq host shorthand, so help is long-form only
	flags.Bool("help", false, "Show help for the command")

	flags.StringP("dbname", "d", "", "Database name")
	flags.StringP("host", "h", "", "Database server host or socket directory")
	flags.IntP("port", "p", 5432, "Database server port")
	flags.StringP("user", "U", "", "Database user name")
	flags.StringP("password", "W", "", "Database user password")

	RootCmd.AddCommand(ExportCmd)
	RootCmd.AddCommand(SyncCmd)
	RootCmd.AddCommand(ConfigCmd)
	RootCmd.AddCommand(VersionCmd)
}

func initLogging(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Verbosity); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	logger.Debugw("Logger initialized", "level", logger.LevelName(cfg.Log.Verbosity))
	if logger.ShouldLogTrace(cfg.Log.Verbosity) {
		for _, s := range am.Settings() {
			logger.Debugw("Config setting", "key", s.Key, "source", s.Source, logger.FieldPath, s.SourcePath)
		}
	}
	return nil
}

// loadConfig binds the root flags and the command's own flags, then loads
// the merged configuration
func loadConfig(cmd *cobra.Command, keys map[string]string) (*am.Config, error) {
	if err := am.BindFlags(cmd.Flags(), rootFlagKeys); err != nil {
		return nil, err
	}
	if len(keys) > 0 {
		if err := am.BindFlags(cmd.Flags(), keys); err != nil {
			return nil, err
		}
	}
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return cfg, nil
}
