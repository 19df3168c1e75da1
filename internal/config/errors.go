package config

import "fmt"

// ConfigError reports a timetable or settings file that cannot be turned
// into a usable schedule. It is always fatal at startup.
type ConfigError struct {
	Path  string
	Field string // offending key path, e.g. "Math.times[1].day"; empty for whole-file errors
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %s: %v", e.Path, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
