package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dayAbbrev = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekday accepts the three-letter lower-case day names used in
// timetables ("mon".."sun"), case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := dayAbbrev[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown day %q (want one of mon,tue,wed,thu,fri,sat,sun)", s)
	}
	return wd, nil
}

// WeekdayAbbrev is the inverse of ParseWeekday.
func WeekdayAbbrev(wd time.Weekday) string {
	return strings.ToLower(wd.String()[:3])
}

// ParseClock parses a 24-hour "HH:MM" (or "H:MM") time of day.
func ParseClock(s string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	hour, err = parseBounded(hh, 23)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err = parseBounded(mm, 59)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	return hour, minute, nil
}

func parseBounded(s string, max int) (int, error) {
	if len(s) == 0 || len(s) > 2 {
		return 0, fmt.Errorf("want 1-2 digits, got %q", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("%d out of range 0-%d", n, max)
	}
	return n, nil
}
