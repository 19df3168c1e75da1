package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "classlaunch/internal/log"
	"classlaunch/internal/model"
)

// ParsedClass is the normalized form of one VEVENT as read from an ICS
// file, before classes with the same name are merged.
type ParsedClass struct {
	UID     string
	Summary string
	URL     string

	// Start is DTSTART converted to the host's local zone.
	Start time.Time

	// Weekdays the class recurs on. From RRULE BYDAY when present,
	// otherwise the weekday of Start.
	Weekdays []time.Weekday
}

// ParseICS parses an ICS payload into classes.
//
//   - Only weekly-recurring or single timed events are accepted; all-day
//     events and non-weekly RRULEs are skipped with a log line.
//   - A single (non-recurring) event is taken as weekly on its weekday.
//   - Times come from DTSTART; EXDATE and overrides are ignored since a
//     timetable has no notion of single dates.
func ParseICS(body []byte) ([]ParsedClass, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	classes := make([]ParsedClass, 0)
	for _, ve := range cal.Events() {
		pc, ok, perr := parseVEvent(ve)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Warn("ics: vevent skipped", "uid", ve.Id(), "reason", perr.Error())
			continue
		}
		if !ok {
			continue
		}
		classes = append(classes, pc)
	}

	appLog.Info("ics parse completed", "class_count", len(classes))
	return classes, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedClass, bool, error) {
	var out ParsedClass
	out.UID = ve.Id()

	// RECURRENCE-ID marks an override of a single instance.
	if ve.GetProperty(ical.ComponentPropertyRecurrenceId) != nil {
		return out, false, nil
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = strings.TrimSpace(p.Value)
	}
	if out.Summary == "" {
		return out, false, errors.New("missing SUMMARY")
	}
	if p := ve.GetProperty(ical.ComponentPropertyUrl); p != nil {
		out.URL = strings.TrimSpace(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, false, errors.New("missing DTSTART")
	}
	if !strings.Contains(dtStart.Value, "T") {
		return out, false, errors.New("all-day event")
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return out, false, err
	}
	out.Start = start.In(time.Local)

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		opt, err := rrule.StrToROption(p.Value)
		if err != nil {
			return out, false, fmt.Errorf("RRULE %q: %w", p.Value, err)
		}
		if opt.Freq != rrule.WEEKLY {
			return out, false, fmt.Errorf("RRULE %q is not weekly", p.Value)
		}
		for i := range opt.Byweekday {
			// rrule numbers weekdays from Monday=0.
			out.Weekdays = append(out.Weekdays, time.Weekday((opt.Byweekday[i].Day()+1)%7))
		}
	}
	if len(out.Weekdays) == 0 {
		out.Weekdays = []time.Weekday{out.Start.Weekday()}
	}
	return out, true, nil
}

// ToTimetable merges parsed classes by summary into a timetable. Class
// order is first appearance; duplicate occurrences collapse.
func ToTimetable(classes []ParsedClass) model.Timetable {
	table := make(model.Timetable, 0)
	index := make(map[string]int)

	for _, pc := range classes {
		at, ok := index[pc.Summary]
		if !ok {
			at = len(table)
			index[pc.Summary] = at
			table = append(table, model.Event{Name: pc.Summary})
		}
		ev := &table[at]
		if ev.Resource == "" {
			ev.Resource = pc.URL
		}
		for _, wd := range pc.Weekdays {
			occ := model.Occurrence{Weekday: wd, Hour: pc.Start.Hour(), Minute: pc.Start.Minute()}
			if !containsOccurrence(ev.Occurrences, occ) {
				ev.Occurrences = append(ev.Occurrences, occ)
			}
		}
	}
	return table
}

func containsOccurrence(list []model.Occurrence, occ model.Occurrence) bool {
	for _, o := range list {
		if o == occ {
			return true
		}
	}
	return false
}
