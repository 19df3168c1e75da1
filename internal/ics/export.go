package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"classlaunch/internal/model"
)

const (
	floatingLayout  = "20060102T150405"
	DefaultDuration = 50 * time.Minute
)

// ExportOptions controls Export.
type ExportOptions struct {
	// Anchor is the date the first week starts from. Zero means now.
	Anchor time.Time

	// Duration of each class. If zero, DefaultDuration is used.
	Duration time.Duration
}

// Export renders the timetable as an iCalendar document with one weekly
// VEVENT per occurrence. Times are floating local times, so the calendar
// follows the viewer's zone like the launcher does.
func Export(table model.Timetable, opts ExportOptions) string {
	if opts.Anchor.IsZero() {
		opts.Anchor = time.Now()
	}
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	anchor := time.Date(opts.Anchor.Year(), opts.Anchor.Month(), opts.Anchor.Day(), 0, 0, 0, 0, time.Local)

	cal := ical.NewCalendarFor("classlaunch")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName("Class timetable")

	for _, ev := range table {
		for _, occ := range ev.Occurrences {
			start := firstOnOrAfter(anchor, occ)
			vev := cal.AddEvent(uid(ev.Name, occ))
			vev.SetDtStampTime(opts.Anchor)
			vev.SetSummary(ev.Name)
			if ev.Resource != "" {
				vev.SetURL(ev.Resource)
			}
			vev.SetProperty(ical.ComponentPropertyDtStart, start.Format(floatingLayout))
			vev.SetProperty(ical.ComponentPropertyDtEnd, start.Add(opts.Duration).Format(floatingLayout))
			vev.AddRrule(weeklyRule(occ.Weekday))
		}
	}
	return cal.Serialize()
}

// firstOnOrAfter returns the first instant of occ on or after the anchor day.
func firstOnOrAfter(anchor time.Time, occ model.Occurrence) time.Time {
	delta := (int(occ.Weekday) - int(anchor.Weekday()) + 7) % 7
	d := anchor.AddDate(0, 0, delta)
	return time.Date(d.Year(), d.Month(), d.Day(), occ.Hour, occ.Minute, 0, 0, d.Location())
}

func weeklyRule(wd time.Weekday) string {
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{[7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}[wd]},
	}
	return opt.RRuleString()
}

func uid(name string, occ model.Occurrence) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)
	return fmt.Sprintf("%s-%s-%02d%02d@classlaunch", slug, model.WeekdayAbbrev(occ.Weekday), occ.Hour, occ.Minute)
}
