package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceUser        ConfigSource = "user"        // ~/.pgagent-yaml/config.toml
	SourceProject     ConfigSource = "project"     // pgagent-yaml.toml
	SourceEnvironment ConfigSource = "environment" // PGAGENT_YAML_* and PG* env vars
	SourceFlag        ConfigSource = "flag"
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // file path, env var or flag name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key" toml:"key"`
	Value      any          `json:"value" yaml:"value" toml:"value"`
	Source     ConfigSource `json:"source" yaml:"source" toml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty" toml:"source_path,omitempty"`
}

// Settings lists every effective setting with the source that set it.
// The password value is masked.
func Settings() []SettingInfo {
	v := GetViper()

	keys := v.AllKeys()
	sort.Strings(keys)

	settings := make([]SettingInfo, 0, len(keys))
	for _, key := range keys {
		info := sourceOf(key)
		value := v.Get(key)
		if key == "database.password" && v.GetString(key) != "" {
			value = "********"
		}
		settings = append(settings, SettingInfo{
			Key:        key,
			Value:      value,
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return settings
}

// sourceOf resolves the source of key: flag, then environment, then the
// tracked file, then the built-in default
func sourceOf(key string) SourceInfo {
	if si, ok := ConfigSources[key]; ok && si.Source == SourceFlag {
		return si
	}

	names := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
	if fallbacks, ok := envFallbacks[key]; ok {
		names = fallbacks
	}
	for _, name := range names {
		if _, ok := os.LookupEnv(name); ok {
			return SourceInfo{Source: SourceEnvironment, Path: name}
		}
	}

	if si, ok := ConfigSources[key]; ok {
		return si
	}
	return SourceInfo{Source: SourceDefault, Path: "built-in default"}
}
