// Package am holds the pgagent-yaml configuration and its loading cascade.
package am

// Config represents the pgagent-yaml configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" toml:"database" json:"database" yaml:"database"`
	Export   ExportConfig   `mapstructure:"export" toml:"export" json:"export" yaml:"export"`
	Sync     SyncConfig     `mapstructure:"sync" toml:"sync" json:"sync" yaml:"sync"`
	Log      LogConfig      `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// DatabaseConfig configures the PostgreSQL connection holding the pgagent schema
type DatabaseConfig struct {
	Host                  string `mapstructure:"host" toml:"host" json:"host" yaml:"host"`
	Port                  int    `mapstructure:"port" toml:"port" json:"port" yaml:"port"`
	DBName                string `mapstructure:"dbname" toml:"dbname" json:"dbname" yaml:"dbname"`
	User                  string `mapstructure:"user" toml:"user" json:"user" yaml:"user"`
	Password              string `mapstructure:"password" toml:"password" json:"password" yaml:"password"`
	SSLMode               string `mapstructure:"sslmode" toml:"sslmode" json:"sslmode" yaml:"sslmode"`
	ConnectTimeoutSeconds int    `mapstructure:"connect_timeout_seconds" toml:"connect_timeout_seconds" json:"connect_timeout_seconds" yaml:"connect_timeout_seconds"` // 0 = driver default
	ApplicationName       string `mapstructure:"application_name" toml:"application_name" json:"application_name" yaml:"application_name"`
}

// ExportConfig configures the export command
type ExportConfig struct {
	OutDir                  string `mapstructure:"out_dir" toml:"out_dir" json:"out_dir" yaml:"out_dir"`
	Clean                   bool   `mapstructure:"clean" toml:"clean" json:"clean" yaml:"clean"`                      // remove a non-empty out_dir first
	IncludeScheduleStartEnd bool   `mapstructure:"include_schedule_start_end" toml:"include_schedule_start_end" json:"include_schedule_start_end" yaml:"include_schedule_start_end"` // keep start/end in documents
	IgnoreVersion           bool   `mapstructure:"ignore_version" toml:"ignore_version" json:"ignore_version" yaml:"ignore_version"`
}

// SyncConfig configures the sync command
type SyncConfig struct {
	Source          string `mapstructure:"source" toml:"source" json:"source" yaml:"source"`
	DryRun          bool   `mapstructure:"dry_run" toml:"dry_run" json:"dry_run" yaml:"dry_run"`
	EchoQueries     bool   `mapstructure:"echo_queries" toml:"echo_queries" json:"echo_queries" yaml:"echo_queries"`
	Yes             bool   `mapstructure:"yes" toml:"yes" json:"yes" yaml:"yes"`
	IgnoreVersion   bool   `mapstructure:"ignore_version" toml:"ignore_version" json:"ignore_version" yaml:"ignore_version"`
	DefaultJobClass string `mapstructure:"default_job_class" toml:"default_job_class" json:"default_job_class" yaml:"default_job_class"`
	Watch           bool   `mapstructure:"watch" toml:"watch" json:"watch" yaml:"watch"`
	WatchDebounceMS int    `mapstructure:"watch_debounce_ms" toml:"watch_debounce_ms" json:"watch_debounce_ms" yaml:"watch_debounce_ms"`
}

// LogConfig configures the global logger
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity" json:"verbosity" yaml:"verbosity"`
}

// File permission constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// Config locations
const (
	EnvPrefix         = "PGAGENT_YAML"
	UserConfigDir     = ".pgagent-yaml"
	UserConfigFile    = "config.toml"
	ProjectConfigFile = "pgagent-yaml.toml"
)
