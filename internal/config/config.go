package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // the default timezone must resolve on hosts without zoneinfo

	ucerr "github.com/abdul-hamid-achik/usagecal/internal/errors"
	"gopkg.in/yaml.v3"
)

// PathsConfig holds file locations. A leading ~ is expanded on load.
type PathsConfig struct {
	Store           string `yaml:"store"`            // Calibration store JSON
	Usage           string `yaml:"usage"`            // Usage snapshot written by the aggregator
	Output          string `yaml:"output"`           // Annotated snapshot written by the monitor
	MetricsTextfile string `yaml:"metrics_textfile"` // node_exporter textfile, empty disables export
}

// MonitorConfig holds poll loop configuration
type MonitorConfig struct {
	Interval   time.Duration `yaml:"interval"`    // Time between ticks (default: 60s)
	Follow     bool          `yaml:"follow"`      // Also wake when the snapshot file changes
	MinSpacing time.Duration `yaml:"min_spacing"` // Minimum time between recomputes in follow mode
}

// Config holds the application configuration
type Config struct {
	Timezone          string        `yaml:"timezone"`
	SessionBaseHour   int           `yaml:"session_base_hour"`
	BaselineThreshold float64       `yaml:"baseline_threshold"`
	MinLearnedLimit   int           `yaml:"min_learned_limit"`
	MaxLearnedLimit   int           `yaml:"max_learned_limit"`
	Paths             PathsConfig   `yaml:"paths"`
	Monitor           MonitorConfig `yaml:"monitor"`

	// Internal: where config was loaded from
	configPath string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Timezone:          "Asia/Seoul",
		SessionBaseHour:   14,
		BaselineThreshold: 0.15,
		MinLearnedLimit:   100,
		MaxLearnedLimit:   20000,
		Paths: PathsConfig{
			Store:  "~/.claude-monitor/calibration_data.json",
			Usage:  "~/.claude_usage.json",
			Output: "~/.claude_usage_calibrated.json",
		},
		Monitor: MonitorConfig{
			Interval:   60 * time.Second,
			MinSpacing: 5 * time.Second,
		},
	}
}

// Load loads configuration from files and environment. An explicit path
// must exist; otherwise the first file found on the search path is used,
// and defaults apply when there is none.
func Load(explicit string) (*Config, error) {
	cfg := DefaultConfig()

	if explicit != "" {
		if err := cfg.loadFromFile(explicit); err != nil {
			return nil, ucerr.ConfigLoadFailed(explicit, err)
		}
		cfg.configPath = explicit
	} else {
		for _, path := range getConfigPaths() {
			if _, err := os.Stat(path); err == nil {
				if err := cfg.loadFromFile(path); err != nil {
					return nil, ucerr.ConfigLoadFailed(path, err)
				}
				cfg.configPath = path
				break
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getConfigPaths returns config file paths in priority order
func getConfigPaths() []string {
	paths := []string{
		"usagecal.yaml",
		filepath.Join(".usagecal", "config.yaml"),
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "usagecal", "config.yaml"),
			filepath.Join(home, ".claude-monitor", "config.yaml"))
	}

	return paths
}

// loadFromFile loads config from a YAML file
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyEnv applies USAGECAL_* overrides on top of the file values.
func (c *Config) applyEnv() error {
	if v := os.Getenv("USAGECAL_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("USAGECAL_BASE_HOUR"); v != "" {
		h, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return ucerr.ConfigInvalid("USAGECAL_BASE_HOUR", fmt.Sprintf("%q is not an hour", v))
		}
		c.SessionBaseHour = h
	}
	if v := os.Getenv("USAGECAL_STORE"); v != "" {
		c.Paths.Store = v
	}
	if v := os.Getenv("USAGECAL_USAGE"); v != "" {
		c.Paths.Usage = v
	}
	return nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Paths.Store, &c.Paths.Usage, &c.Paths.Output, &c.Paths.MetricsTextfile} {
		expanded, err := ExpandHome(*p)
		if err != nil {
			return ucerr.ConfigLoadFailed(*p, err)
		}
		*p = expanded
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.SessionBaseHour < 0 || c.SessionBaseHour > 23 {
		errs = append(errs, ucerr.ConfigInvalid("session_base_hour", "must be 0-23"))
	}
	if c.BaselineThreshold <= 0 {
		errs = append(errs, ucerr.ConfigInvalid("baseline_threshold", "must be positive"))
	}
	if c.MinLearnedLimit <= 0 {
		errs = append(errs, ucerr.ConfigInvalid("min_learned_limit", "must be positive"))
	}
	if c.MinLearnedLimit >= c.MaxLearnedLimit {
		errs = append(errs, ucerr.ConfigInvalid("max_learned_limit", "must be greater than min_learned_limit"))
	}
	if c.Monitor.Interval <= 0 {
		errs = append(errs, ucerr.ConfigInvalid("monitor.interval", "must be positive"))
	}
	if c.Monitor.MinSpacing < 0 {
		errs = append(errs, ucerr.ConfigInvalid("monitor.min_spacing", "must not be negative"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, ucerr.ConfigInvalid("timezone", err.Error()))
	}
	return errors.Join(errs...)
}

// Location resolves the configured timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ConfigPath returns where the config was loaded from
func (c *Config) ConfigPath() string {
	return c.configPath
}
