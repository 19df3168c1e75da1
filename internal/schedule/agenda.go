package schedule

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "classlaunch/internal/log"
	"classlaunch/internal/model"
)

// rruleDays maps time.Weekday (Sunday=0) to rrule weekdays (Monday=0).
var rruleDays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// BuildAgenda projects the weekly timetable onto the calendar day of day.
//
// Every occurrence is expanded as a weekly rule and bounded to
// [midnight, next midnight) of that day in day's location, so an
// occurrence appears exactly when its weekday matches. The result is sorted
// ascending by FireAt; the sort is stable over definition order (events,
// then occurrences within an event), which breaks ties.
func BuildAgenda(table model.Timetable, day time.Time) []model.TodayOccurrence {
	loc := day.Location()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	agenda := make([]model.TodayOccurrence, 0)
	for _, ev := range table {
		for _, occ := range ev.Occurrences {
			if occ.Weekday != dayStart.Weekday() {
				continue
			}
			for _, at := range expandOccurrence(occ, dayStart, dayEnd) {
				agenda = append(agenda, model.TodayOccurrence{
					Name:     ev.Name,
					Resource: ev.Resource,
					FireAt:   at,
				})
			}
		}
	}

	sort.SliceStable(agenda, func(i, j int) bool {
		return agenda[i].FireAt.Before(agenda[j].FireAt)
	})
	return agenda
}

// expandOccurrence returns the instants of occ within [dayStart, dayEnd).
func expandOccurrence(occ model.Occurrence, dayStart, dayEnd time.Time) []time.Time {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   dayStart.AddDate(0, 0, -7),
		Byweekday: []rrule.Weekday{rruleDays[occ.Weekday]},
		Byhour:    []int{occ.Hour},
		Byminute:  []int{occ.Minute},
		Bysecond:  []int{0},
	})
	if err != nil {
		// Occurrences are range-checked at load; this is unreachable for a
		// parsed timetable.
		appLog.Error("agenda: invalid occurrence", err, "weekday", occ.Weekday.String(), "clock", occ.Clock())
		return nil
	}
	return r.Between(dayStart.Add(-time.Second), dayEnd, false)
}

// agendaNames returns the distinct event names of agenda in first-seen order.
func agendaNames(agenda []model.TodayOccurrence) []string {
	seen := make(map[string]bool, len(agenda))
	names := make([]string, 0, len(agenda))
	for _, o := range agenda {
		if seen[o.Name] {
			continue
		}
		seen[o.Name] = true
		names = append(names, o.Name)
	}
	return names
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
