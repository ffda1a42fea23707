package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/agentq/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys.
const (
	KeyLibrary   = "library"
	KeyHistory   = "history"
	KeyPolicy    = "policy"
	KeyReportTop = "report.top"
	KeyReportDir = "report.output_dir"
	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
)

// Defaults applied before the config file and environment are read.
const (
	DefaultLibrary   = "agents"
	DefaultReportTop = 10
)

// DefaultHistoryPath is relative to the working directory.
var DefaultHistoryPath = filepath.Join(".agentq", "history.json")

// Dir returns the path to the user config directory (~/.agentq/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.agentq/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Load initializes Viper to read from the config file and environment.
// An empty override reads ~/.agentq/config.yaml; a missing file is not an
// error, but an explicit override that cannot be parsed is.
func Load(override string) error {
	viper.SetDefault(KeyLibrary, DefaultLibrary)
	viper.SetDefault(KeyHistory, DefaultHistoryPath)
	viper.SetDefault(KeyReportTop, DefaultReportTop)
	viper.SetDefault(KeyLogLevel, "warn")
	viper.SetDefault(KeyLogFormat, "console")

	path := FilePath()
	if override != "" {
		path = override
	}
	viper.SetConfigFile(path)
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if override == "" && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Library returns the template library directory.
func Library() string { return viper.GetString(KeyLibrary) }

// HistoryPath returns the version history file path.
func HistoryPath() string { return viper.GetString(KeyHistory) }

// PolicyPath returns the scoring policy override path, or "" for the built-in policy.
func PolicyPath() string { return viper.GetString(KeyPolicy) }

// ReportTop returns how many issues and strengths a report keeps.
func ReportTop() int {
	if n := viper.GetInt(KeyReportTop); n > 0 {
		return n
	}
	return DefaultReportTop
}

// ReportDir returns the default directory for rendered reports.
func ReportDir() string { return viper.GetString(KeyReportDir) }

// LogLevel returns the configured log level name.
func LogLevel() string { return viper.GetString(KeyLogLevel) }

// LogFormat returns the configured log format ("console" or "json").
func LogFormat() string { return viper.GetString(KeyLogFormat) }

// Set writes one key to the active config file: the --config override if
// Load was given one, else ~/.agentq/config.yaml. Only the file's own keys
// and the new value are written; defaults, environment values and flag
// overrides held by the global viper instance never reach the file.
func Set(key, value string) error {
	path := viper.ConfigFileUsed()
	if path == "" {
		path = FilePath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", filepath.Dir(path), err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}

	viper.Set(key, value)
	return nil
}
