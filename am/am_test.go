package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andruche/pgagent-yaml/errors"
)

// isolate points HOME and the working directory at a fresh temp dir and
// clears every variable the cascade reads
func isolate(t *testing.T) string {
	t.Helper()
	Reset()
	t.Cleanup(Reset)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	chdir(t, dir)
	for _, names := range envFallbacks {
		for _, name := range names {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), DefaultDirPermissions))
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Database.ConnectTimeoutSeconds)
	assert.Equal(t, "pgagent-yaml", cfg.Database.ApplicationName)
	assert.Equal(t, "Routine Maintenance", cfg.Sync.DefaultJobClass)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.WatchDebounce())
	assert.False(t, cfg.Export.Clean)

	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}

func TestLoadPrecedence(t *testing.T) {
	home := isolate(t)

	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), `
[database]
host = "user-host"
dbname = "user-db"
port = 6000
`)

	project := filepath.Join(home, "repo", "jobs")
	writeFile(t, filepath.Join(home, "repo", ProjectConfigFile), `
[database]
dbname = "project-db"

[sync]
default_job_class = "Data Import"
`)
	require.NoError(t, os.MkdirAll(project, DefaultDirPermissions))
	chdir(t, project)

	t.Setenv("PGAGENT_YAML_DATABASE_PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "user-host", cfg.Database.Host)
	assert.Equal(t, "project-db", cfg.Database.DBName)
	assert.Equal(t, 7000, cfg.Database.Port)
	assert.Equal(t, "Data Import", cfg.Sync.DefaultJobClass)

	assert.Equal(t, SourceUser, ConfigSources["database.host"].Source)
	assert.Equal(t, SourceProject, ConfigSources["database.dbname"].Source)
	assert.Contains(t, ConfigSources["database.dbname"].Path, ProjectConfigFile)
}

func TestLibpqFallbacks(t *testing.T) {
	isolate(t)
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGDATABASE", "jobs")
	t.Setenv("PGPASSWORD", "secret")
	t.Setenv("PGAGENT_YAML_AUTOCLEAN", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "jobs", cfg.Database.DBName)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.True(t, cfg.Export.Clean)
}

func TestPrefixedVariableBeatsLibpq(t *testing.T) {
	isolate(t)
	t.Setenv("PGHOST", "libpq-host")
	t.Setenv("PGAGENT_YAML_DATABASE_HOST", "prefixed-host")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed-host", cfg.Database.Host)
}

func TestBindFlags(t *testing.T) {
	isolate(t)
	t.Setenv("PGDATABASE", "from-env")

	flags := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	flags.StringP("dbname", "d", "", "")
	flags.Bool("dry-run", false, "")
	require.NoError(t, flags.Parse([]string{"-d", "from-flag"}))

	require.NoError(t, BindFlags(flags, map[string]string{
		"database.dbname": "dbname",
		"sync.dry_run":    "dry-run",
	}))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Database.DBName)
	assert.False(t, cfg.Sync.DryRun)
	assert.Equal(t, SourceInfo{Source: SourceFlag, Path: "--dbname"}, ConfigSources["database.dbname"])

	err = BindFlags(flags, map[string]string{"sync.yes": "yes"})
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	writeFile(t, path, `
[export]
out_dir = "jobs"
include_schedule_start_end = true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jobs", cfg.Export.OutDir)
	assert.True(t, cfg.Export.IncludeScheduleStartEnd)
	assert.Equal(t, 5432, cfg.Database.Port)

	_, err = LoadFromFile(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{DBName: "jobs", Port: 5432, ConnectTimeoutSeconds: 10},
			Sync:     SyncConfig{WatchDebounceMS: 500},
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty dbname", func(c *Config) { c.Database.DBName = "" }, "database.dbname cannot be empty"},
		{"zero port", func(c *Config) { c.Database.Port = 0 }, "database.port must be positive"},
		{"negative timeout", func(c *Config) { c.Database.ConnectTimeoutSeconds = -1 }, "connect_timeout_seconds"},
		{"negative debounce", func(c *Config) { c.Sync.WatchDebounceMS = -5 }, "watch_debounce_ms"},
		{"watch without yes", func(c *Config) { c.Sync.Watch = true }, "sync.watch requires"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg = valid()
	cfg.Sync.Watch = true
	cfg.Sync.DryRun = true
	require.NoError(t, cfg.Validate())

	cfg.Database.DBName = ""
	assert.Contains(t, errors.Hint(cfg.Validate()), "PGDATABASE")
}

func TestConnInfoAndMasking(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{
		Host: "localhost", Port: 5433, DBName: "jobs", User: "postgres",
		Password: "secret", ConnectTimeoutSeconds: 3, ApplicationName: "pgagent-yaml",
	}}

	info := cfg.Database.ConnInfo()
	assert.Equal(t, "localhost", info.Host)
	assert.Equal(t, 5433, info.Port)
	assert.Equal(t, 3*time.Second, info.ConnectTimeout)
	assert.Equal(t, "secret", info.Password)

	masked := cfg.Masked()
	assert.Equal(t, "********", masked.Database.Password)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "", Config{}.Masked().Database.Password)
}

func TestSettingsSources(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), "[database]\nuser = \"admin\"\n")
	t.Setenv("PGPASSWORD", "secret")

	_, err := Load()
	require.NoError(t, err)

	byKey := map[string]SettingInfo{}
	for _, s := range Settings() {
		byKey[s.Key] = s
	}

	assert.Equal(t, SourceUser, byKey["database.user"].Source)
	assert.Equal(t, "admin", byKey["database.user"].Value)
	assert.Equal(t, SourceEnvironment, byKey["database.password"].Source)
	assert.Equal(t, "PGPASSWORD", byKey["database.password"].SourcePath)
	assert.Equal(t, "********", byKey["database.password"].Value)
	assert.Equal(t, SourceDefault, byKey["sync.watch"].Source)
}

// chdir changes the working directory to dir and restores it when the test
// ends, like testing.T.Chdir (Go 1.24+)
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
