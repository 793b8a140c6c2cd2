package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appLog "plancal/internal/log"
	"plancal/internal/planner"
)

// NOTE: The config file is read once at process start. A missing file is
// created with defaults and 0600 permissions.

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "Local"
	defaultWorkStart   = "09:00"
	defaultWorkEnd     = "17:00"
	defaultSlotMinutes = 30
	defaultHorizonDays = 60
	defaultRefreshCron = "5 0 * * *"
	defaultLogLevel    = "info"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone that defines "today" and the working
	// window (e.g. "Europe/Berlin"). "Local" uses the host zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WorkStart and WorkEnd bound the daily working window, "HH:MM".
	WorkStart string `yaml:"work_start" json:"work_start"`
	WorkEnd   string `yaml:"work_end" json:"work_end"`

	// SlotMinutes is the granularity of the slot grid.
	SlotMinutes int `yaml:"slot_minutes" json:"slot_minutes"`

	// HorizonDays is how many days after today are planned.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// RefreshCron is a cron-style schedule string (e.g. "5 0 * * *") on
	// which the schedule is re-optimized so that "today" moves forward.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// TasksFile, if set, is a YAML task list loaded at start.
	TasksFile string `yaml:"tasks_file,omitempty" json:"tasks_file,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      defaultListen,
		Timezone:    defaultTimezone,
		WorkStart:   defaultWorkStart,
		WorkEnd:     defaultWorkEnd,
		SlotMinutes: defaultSlotMinutes,
		HorizonDays: defaultHorizonDays,
		RefreshCron: defaultRefreshCron,
		LogLevel:    defaultLogLevel,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.WorkStart == "" {
		c.WorkStart = defaultWorkStart
	}
	if c.WorkEnd == "" {
		c.WorkEnd = defaultWorkEnd
	}
	if c.SlotMinutes <= 0 {
		c.SlotMinutes = defaultSlotMinutes
	}
	// A zero horizon is legal (plan today only).
	if c.HorizonDays < 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		// Unknown value; fall back to info rather than silencing the log.
		c.LogLevel = defaultLogLevel
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Planner converts the file into planner options. Invalid clock values or
// a window that cannot hold one slot are reported as errors.
func (c *Config) Planner() (planner.Options, error) {
	var o planner.Options

	start, err := planner.ParseClock(c.WorkStart)
	if err != nil {
		return o, fmt.Errorf("config: work_start: %w", err)
	}
	end, err := planner.ParseClock(c.WorkEnd)
	if err != nil {
		return o, fmt.Errorf("config: work_end: %w", err)
	}
	loc, err := c.Location()
	if err != nil {
		return o, err
	}

	o = planner.Options{
		WorkStart:   start,
		WorkEnd:     end,
		Slot:        time.Duration(c.SlotMinutes) * time.Minute,
		HorizonDays: c.HorizonDays,
		Location:    loc,
	}
	if err := o.Validate(); err != nil {
		return planner.Options{}, fmt.Errorf("config: %w", err)
	}
	return o, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("default config written", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".plancal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
