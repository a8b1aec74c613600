// Package config provides configuration management for cronalarm.
// It uses koanf v2 to load configuration from YAML files and supports
// saving the effective configuration back out for editing.
//
// Configuration is loaded from $XDG_CONFIG_HOME/cronalarm/config.yaml by
// default. A missing file is not an error; every key has a default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	robfig "github.com/robfig/cron/v3"
	goyaml "gopkg.in/yaml.v3"
)

// Config holds the cronalarm configuration loaded from the YAML config file.
// Fields are tagged for both koanf (loading) and yaml (saving).
type Config struct {
	// DataDir holds the entries database, the log and the crontab lock.
	// Default: ~/.local/share/cronalarm.
	DataDir string `koanf:"data_dir" yaml:"data_dir"`

	// Program is the command written into crontab lines, followed by "play".
	// Lines whose command starts with Program are owned by cronalarm.
	// Default: the running executable.
	Program string `koanf:"program" yaml:"program"`

	// PlayCommands are shell commands run in order when an alarm fires.
	// The alarm's play options are appended to each, shell-quoted.
	PlayCommands []string `koanf:"play_commands" yaml:"play_commands"`

	// PlayTimeout bounds each play command, in seconds.
	// Default: 300.
	PlayTimeout int `koanf:"play_timeout" yaml:"play_timeout"`

	// WakeupOffset is how many seconds before the alarm the RTC wakes the
	// machine. Default: 60.
	WakeupOffset int `koanf:"wakeup_offset" yaml:"wakeup_offset"`

	// RTCDevice names the clock under /sys/class/rtc.
	// Default: "rtc0".
	RTCDevice string `koanf:"rtc_device" yaml:"rtc_device"`

	// CrontabCommand is the crontab binary used to read and install the tab.
	// Default: "crontab".
	CrontabCommand string `koanf:"crontab_command" yaml:"crontab_command"`

	// HelperSocket is the Unix socket of cronalarm-helper. When set, wake
	// alarm writes go through the helper instead of sysfs directly.
	HelperSocket string `koanf:"helper_socket" yaml:"helper_socket"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error".
	// Default: "info".
	LogLevel string `koanf:"log_level" yaml:"log_level"`

	// LogMaxSize is the log file size in megabytes that triggers rotation.
	// Default: 5.
	LogMaxSize int `koanf:"log_max_size" yaml:"log_max_size"`

	// ResyncSchedule is how often the daemon re-applies the alarms, in
	// robfig/cron syntax. Default: "@every 5m".
	ResyncSchedule string `koanf:"resync_schedule" yaml:"resync_schedule"`
}

// Validation errors returned by Load.
var (
	ErrInvalidPlayTimeout     = errors.New("play_timeout must be positive")
	ErrInvalidWakeupOffset    = errors.New("wakeup_offset must not be negative")
	ErrInvalidLogMaxSize      = errors.New("log_max_size must be positive")
	ErrResyncScheduleRequired = errors.New("resync_schedule is required")
	ErrInvalidResyncSchedule  = errors.New("resync_schedule is invalid")
	ErrRTCDeviceRequired      = errors.New("rtc_device is required")
)

// DefaultPath returns the default configuration file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "cronalarm", "config.yaml"), nil
}

// Load reads configuration from the specified YAML file path.
// It applies defaults for unset fields and validates the result.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to locate home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".local", "share", "cronalarm")
	}
	if c.Program == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate executable: %w", err)
		}
		c.Program = exe
	}
	if c.PlayTimeout == 0 {
		c.PlayTimeout = 300
	}
	if c.WakeupOffset == 0 {
		c.WakeupOffset = 60
	}
	if c.RTCDevice == "" {
		c.RTCDevice = "rtc0"
	}
	if c.CrontabCommand == "" {
		c.CrontabCommand = "crontab"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSize == 0 {
		c.LogMaxSize = 5
	}
	if c.ResyncSchedule == "" {
		c.ResyncSchedule = "@every 5m"
	}
	return nil
}

// validate checks that configuration fields hold usable values.
func (c *Config) validate() error {
	if c.PlayTimeout <= 0 {
		return ErrInvalidPlayTimeout
	}
	if c.WakeupOffset < 0 {
		return ErrInvalidWakeupOffset
	}
	if c.LogMaxSize <= 0 {
		return ErrInvalidLogMaxSize
	}
	if c.RTCDevice == "" {
		return ErrRTCDeviceRequired
	}
	if c.ResyncSchedule == "" {
		return ErrResyncScheduleRequired
	}
	if _, err := robfig.ParseStandard(c.ResyncSchedule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResyncSchedule, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
func Save(path string, cfg *Config) error {
	data, err := goyaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}

	return nil
}

// EntriesPath is the bbolt database holding the alarm lines.
func (c *Config) EntriesPath() string { return filepath.Join(c.DataDir, "entries.db") }

// LogPath is the rotated log file.
func (c *Config) LogPath() string { return filepath.Join(c.DataDir, "log") }

// LockPath guards crontab read-modify-write cycles.
func (c *Config) LockPath() string { return filepath.Join(c.DataDir, "crontab.lock") }

// PlayTimeoutDuration returns PlayTimeout as a time.Duration.
func (c *Config) PlayTimeoutDuration() time.Duration {
	return time.Duration(c.PlayTimeout) * time.Second
}

// WakeupOffsetDuration returns WakeupOffset as a time.Duration.
func (c *Config) WakeupOffsetDuration() time.Duration {
	return time.Duration(c.WakeupOffset) * time.Second
}

// UseHelper reports whether wake alarm writes go through cronalarm-helper.
func (c *Config) UseHelper() bool {
	return c.HelperSocket != ""
}
