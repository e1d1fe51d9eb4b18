package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/andruche/pgagent-yaml/errors"
)

var globalConfig *Config
var viperInstance *viper.Viper

// ConfigSources records which file set each key, filled while merging
var ConfigSources = map[string]SourceInfo{}

// Load reads the pgagent-yaml configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	config, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", configPath)
	}
	return config, nil
}

// BindFlags binds command flags to configuration keys. Flags only take
// effect when the user set them on the command line.
func BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	v := initViper()
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			return errors.Newf("flag --%s is not defined", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "failed to bind --%s", name)
		}
		if f.Changed {
			ConfigSources[key] = SourceInfo{Source: SourceFlag, Path: "--" + name}
		}
	}
	globalConfig = nil
	return nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	BindEnvVars(v)

	SetDefaults(v)

	// Precedence (lowest to highest): defaults < user < project < env vars < flags
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// findProjectConfig searches for pgagent-yaml.toml by walking up the directory tree.
// Returns "" when none is found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges the user and project files into v, recording the
// file each key came from
func mergeConfigFiles(v *viper.Viper) {
	type configFile struct {
		path   string
		source ConfigSource
	}

	var files []configFile
	if homeDir, err := os.UserHomeDir(); err == nil {
		files = append(files, configFile{filepath.Join(homeDir, UserConfigDir, UserConfigFile), SourceUser})
	}
	if project := findProjectConfig(); project != "" {
		files = append(files, configFile{project, SourceProject})
	}

	for _, file := range files {
		if _, err := os.Stat(file.path); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(file.path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			continue
		}
		for _, key := range tempViper.AllKeys() {
			ConfigSources[key] = SourceInfo{Source: file.source, Path: file.path}
		}
	}
}
