package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Launcher kinds accepted by Settings.Launcher.
const (
	LauncherSystem = "system"
	LauncherChrome = "chrome"
	LauncherDryRun = "dry-run"
)

const (
	DefaultTimetablePath = "./auto-class-launcher-timetable.json"
	DefaultLeadTime      = 5 * time.Minute
	DefaultPollInterval  = time.Second
	DefaultFallbackURL   = "https://auto-class-launcher-alarm.vercel.app/"
	EnvPrefix            = "CLASSLAUNCH"
)

// Settings is the top-level application configuration. The timetable
// itself lives in its own file (see EnsureTimetable).
type Settings struct {
	// Timetable is the path of the YAML/JSON timetable file.
	Timetable string `mapstructure:"timetable" yaml:"timetable"`

	// LeadTime is how long before a class starts its resource is opened.
	LeadTime time.Duration `mapstructure:"lead_time" yaml:"lead_time"`

	// PollInterval is the re-evaluation period of the poll loop.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`

	// FallbackURL is the endpoint used for classes without a link. The
	// class name and start time are appended as query parameters.
	FallbackURL string `mapstructure:"fallback_url" yaml:"fallback_url"`

	// Launcher selects how resources are opened:
	//   - "system" (default): the platform opener (xdg-open, open, ...)
	//   - "chrome": a Chrome window driven over the DevTools protocol
	//   - "dry-run": log only
	Launcher string `mapstructure:"launcher" yaml:"launcher"`

	// Journal is an optional SQLite file recording firings so a restart
	// on the same day does not reopen classes. Empty disables it.
	Journal string `mapstructure:"journal" yaml:"journal"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultSettings returns an in-memory default configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Timetable:    DefaultTimetablePath,
		LeadTime:     DefaultLeadTime,
		PollInterval: DefaultPollInterval,
		FallbackURL:  DefaultFallbackURL,
		Launcher:     LauncherSystem,
		LogLevel:     "info",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (s *Settings) Normalize() {
	if s.Timetable == "" {
		s.Timetable = DefaultTimetablePath
	}
	if s.LeadTime <= 0 {
		s.LeadTime = DefaultLeadTime
	}
	if s.PollInterval < time.Second {
		// cron schedules have one-second resolution.
		s.PollInterval = DefaultPollInterval
	}
	if s.FallbackURL == "" {
		s.FallbackURL = DefaultFallbackURL
	}
	s.Launcher = strings.ToLower(strings.TrimSpace(s.Launcher))
	if s.Launcher == "" {
		s.Launcher = LauncherSystem
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
}

// Validate reports settings Normalize cannot repair. Unknown launcher
// kinds are rejected rather than guessed.
func (s *Settings) Validate() error {
	switch s.Launcher {
	case LauncherSystem, LauncherChrome, LauncherDryRun:
		return nil
	default:
		return fmt.Errorf("unknown launcher %q (want %s, %s or %s)", s.Launcher, LauncherSystem, LauncherChrome, LauncherDryRun)
	}
}

// NewViper returns a viper instance preloaded with defaults and the
// CLASSLAUNCH_* environment mapping. Callers bind CLI flags onto it.
func NewViper() *viper.Viper {
	v := viper.New()
	d := DefaultSettings()
	v.SetDefault("timetable", d.Timetable)
	v.SetDefault("lead_time", d.LeadTime)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("fallback_url", d.FallbackURL)
	v.SetDefault("launcher", d.Launcher)
	v.SetDefault("journal", d.Journal)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads settings from v, merging the optional settings file at path.
//
// Behavior:
//   - path == "": defaults, environment and bound flags only
//   - path set but missing: same as above (no file is created)
//   - path set and present: YAML is merged below env and flags
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{Path: path, Err: err}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, &ConfigError{Path: path, Field: "launcher", Err: err}
	}
	return &s, nil
}
