package model

import (
	"fmt"
	"time"
)

// Occurrence is one weekly recurrence instant of an event: a weekday plus a
// local time of day. Seconds are always zero.
type Occurrence struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// Clock formats the time of day as "H:MM" (hour not padded, minutes padded).
func (o Occurrence) Clock() string {
	return fmt.Sprintf("%d:%02d", o.Hour, o.Minute)
}

// Event is a named class with its weekly occurrences. Resource is the
// locator to open; empty means a fallback locator is built at fire time.
type Event struct {
	Name        string
	Resource    string
	Occurrences []Occurrence
}

// Timetable is the recurrence table. Order is definition order and is
// used to break ties between occurrences at the same instant.
type Timetable []Event

// Names returns event names in definition order.
func (t Timetable) Names() []string {
	out := make([]string, 0, len(t))
	for _, ev := range t {
		out = append(out, ev.Name)
	}
	return out
}

// Lookup returns the event with the given name.
func (t Timetable) Lookup(name string) (Event, bool) {
	for _, ev := range t {
		if ev.Name == name {
			return ev, true
		}
	}
	return Event{}, false
}

// TodayOccurrence is a single occurrence projected onto a concrete day.
type TodayOccurrence struct {
	Name     string
	Resource string

	// FireAt is the class start in the host's local zone.
	FireAt time.Time
}

// Clock formats FireAt the same way as Occurrence.Clock.
func (o TodayOccurrence) Clock() string {
	return fmt.Sprintf("%d:%02d", o.FireAt.Hour(), o.FireAt.Minute())
}

// FireRecord is a persisted firing of an event on a given day.
type FireRecord struct {
	ID      string
	Day     string // YYYY-MM-DD in local time
	Event   string
	Locator string
	FireAt  time.Time
	FiredAt time.Time
	Err     string
}

// DayKey formats t's calendar date as used by FireRecord.Day.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
