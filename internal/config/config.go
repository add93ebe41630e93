package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/shlex"
)

// Environment variables read by loadEnv. DB_PATH, LOG_PATH and
// WATCH_INTERVAL keep the names used by existing deployments.
const (
	EnvDataDir       = "AGENTSDB_DATA_DIR"
	EnvConfigFile    = "AGENTSDB_CONFIG"
	EnvDBPath        = "DB_PATH"
	EnvLogPath       = "LOG_PATH"
	EnvWatchInterval = "WATCH_INTERVAL"
	EnvExclude       = "EXCLUDE"
	EnvWatchFS       = "WATCH_FS"
	EnvLogLevel      = "LOG_LEVEL"
)

// DefaultWatchInterval is the sleep between scan cycles.
const DefaultWatchInterval = 30 * time.Second

// Config holds all process configuration.
type Config struct {
	DataDir       string
	ConfigFile    string
	DBPath        string
	LogPath       string
	WatchInterval time.Duration
	// Exclude holds doublestar globs, relative to LogPath, for
	// session files that should never be ingested.
	Exclude  []string
	WatchFS  bool
	LogLevel string
}

// fileConfig mirrors the TOML file. Pointer fields distinguish
// "unset" from zero values.
type fileConfig struct {
	DBPath        *string  `toml:"db_path"`
	LogPath       *string  `toml:"log_path"`
	WatchInterval *int     `toml:"watch_interval"`
	Exclude       []string `toml:"exclude"`
	WatchFS       *bool    `toml:"watch_fs"`
	LogLevel      *string  `toml:"log_level"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	dataDir := filepath.Join(home, ".agentsdb")
	return Config{
		DataDir:       dataDir,
		LogPath:       filepath.Join(home, ".claude"),
		WatchInterval: DefaultWatchInterval,
		LogLevel:      "info",
	}, nil
}

// Load builds a Config by layering: defaults < config file < env.
// configFile may be empty, in which case $AGENTSDB_CONFIG or
// <data dir>/config.toml is used if present. Flag overrides are
// applied by the caller afterwards.
func Load(configFile string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}

	cfg.ConfigFile = configFile
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = os.Getenv(EnvConfigFile)
	}
	explicit := cfg.ConfigFile != ""
	if !explicit {
		cfg.ConfigFile = filepath.Join(cfg.DataDir, "config.toml")
	}

	if err := cfg.loadFile(explicit); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	if err := cfg.loadEnv(); err != nil {
		return cfg, fmt.Errorf("loading environment: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "sessions.db")
	}
	return cfg, nil
}

// loadFile reads the TOML config file. A missing file is only
// an error when the path was given explicitly.
func (c *Config) loadFile(explicit bool) error {
	data, err := os.ReadFile(c.ConfigFile)
	if os.IsNotExist(err) && !explicit {
		return nil
	}
	if err != nil {
		return err
	}

	var file fileConfig
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", c.ConfigFile, err)
	}
	if file.DBPath != nil {
		c.DBPath = *file.DBPath
	}
	if file.LogPath != nil {
		c.LogPath = *file.LogPath
	}
	if file.WatchInterval != nil {
		c.WatchInterval = time.Duration(*file.WatchInterval) * time.Second
	}
	if file.Exclude != nil {
		c.Exclude = file.Exclude
	}
	if file.WatchFS != nil {
		c.WatchFS = *file.WatchFS
	}
	if file.LogLevel != nil {
		c.LogLevel = *file.LogLevel
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvLogPath); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv(EnvWatchInterval); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvWatchInterval, v, err)
		}
		c.WatchInterval = time.Duration(secs) * time.Second
	}
	if v := os.Getenv(EnvExclude); v != "" {
		patterns, err := shlex.Split(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvExclude, v, err)
		}
		c.Exclude = patterns
	}
	if v := os.Getenv(EnvWatchFS); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvWatchFS, v, err)
		}
		c.WatchFS = b
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate reports configuration that would make the scan loop
// misbehave.
func (c Config) Validate() error {
	if c.LogPath == "" {
		return fmt.Errorf("log path is empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf(
			"watch interval must be positive, got %s",
			c.WatchInterval,
		)
	}
	for _, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}
