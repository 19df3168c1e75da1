package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	appLog "classlaunch/internal/log"
	"classlaunch/internal/model"
)

// Launcher opens a resource locator. It is the only external side effect
// of the scheduler.
type Launcher interface {
	Launch(ctx context.Context, locator string) error
}

// Journal persists firings across restarts. Optional.
type Journal interface {
	FiredOn(ctx context.Context, day string) ([]string, error)
	Record(ctx context.Context, rec model.FireRecord) error
}

// LocatorFunc builds the locator for a class that has no resource of its
// own, from the class name and its start time of day.
type LocatorFunc func(name string, hour, minute int) string

// ActionError is returned by Tick when opening a class failed. The class is
// still marked fired and is not retried today.
type ActionError struct {
	Event   string
	Locator string
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("launch %q (%s): %v", e.Event, e.Locator, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Options configures a Scheduler.
type Options struct {
	LeadTime time.Duration
	Fallback LocatorFunc
	Journal  Journal
}

// Scheduler is the per-process scheduling context: the read-only
// timetable plus today's agenda and firing state.
type Scheduler struct {
	table    model.Timetable
	launcher Launcher
	lead     time.Duration
	fallback LocatorFunc
	journal  Journal

	built  bool
	day    time.Time
	agenda []model.TodayOccurrence
	state  *FiringState
}

// New returns a Scheduler for table. launcher must not be nil.
func New(table model.Timetable, launcher Launcher, opts Options) *Scheduler {
	if opts.LeadTime <= 0 {
		opts.LeadTime = DefaultLeadTime
	}
	return &Scheduler{
		table:    table,
		launcher: launcher,
		lead:     opts.LeadTime,
		fallback: opts.Fallback,
		journal:  opts.Journal,
		state:    NewFiringState(),
	}
}

// Refresh returns today's agenda, rebuilding it on the first call and
// whenever the calendar date of now differs from the last build. A rebuild
// resets the firing state to exactly the agenda's classes.
func (s *Scheduler) Refresh(ctx context.Context, now time.Time) (agenda []model.TodayOccurrence, reset bool) {
	if s.built && sameDay(s.day, now) {
		return s.agenda, false
	}

	s.agenda = BuildAgenda(s.table, now)
	s.state.Reset(agendaNames(s.agenda))
	s.day = now
	s.built = true

	s.restoreFired(ctx, now)

	appLog.Info("agenda built",
		"day", model.DayKey(now),
		"weekday", now.Weekday().String(),
		"occurrences", len(s.agenda),
		"pending", s.state.Pending(),
	)
	return s.agenda, true
}

// restoreFired re-marks classes that the journal says already fired today.
func (s *Scheduler) restoreFired(ctx context.Context, now time.Time) {
	if s.journal == nil {
		return
	}
	names, err := s.journal.FiredOn(ctx, model.DayKey(now))
	if err != nil {
		appLog.Error("journal: read fired classes failed", err, "day", model.DayKey(now))
		return
	}
	for _, n := range names {
		if s.state.Has(n) {
			s.state.MarkFired(n)
			appLog.Debug("journal: class already fired today", "class", n)
		}
	}
}

// Tick runs one evaluation at now: refresh, select and, on ReadyToFire,
// launch. The returned error is non-nil only for a failed launch
// (*ActionError); the decision is valid either way.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (Decision, error) {
	agenda, _ := s.Refresh(ctx, now)
	d := Select(agenda, now, s.state, s.lead)
	if d.Kind != ReadyToFire {
		return d, nil
	}
	return d, s.fire(ctx, d.Next, now)
}

// fire opens occ and marks its class fired, even when opening fails.
func (s *Scheduler) fire(ctx context.Context, occ model.TodayOccurrence, now time.Time) error {
	locator := s.Locator(occ)

	appLog.Info("opening class", "class", occ.Name, "starts", occ.Clock(), "locator", locator)
	launchErr := s.launcher.Launch(ctx, locator)
	s.state.MarkFired(occ.Name)

	var err error
	if launchErr != nil {
		err = &ActionError{Event: occ.Name, Locator: locator, Err: launchErr}
	}

	if s.journal != nil {
		rec := model.FireRecord{
			Day:     model.DayKey(now),
			Event:   occ.Name,
			Locator: locator,
			FireAt:  occ.FireAt,
			FiredAt: now,
		}
		if launchErr != nil {
			rec.Err = launchErr.Error()
		}
		if jerr := s.journal.Record(ctx, rec); jerr != nil {
			appLog.Error("journal: record firing failed", jerr, "class", occ.Name)
		}
	}
	return err
}

// Locator returns occ's resource, or the fallback locator when it has none.
func (s *Scheduler) Locator(occ model.TodayOccurrence) string {
	if occ.Resource != "" || s.fallback == nil {
		return occ.Resource
	}
	return s.fallback(occ.Name, occ.FireAt.Hour(), occ.FireAt.Minute())
}

// Agenda returns the agenda of the last Refresh.
func (s *Scheduler) Agenda() []model.TodayOccurrence { return s.agenda }

// State exposes the firing state of the current day.
func (s *Scheduler) State() *FiringState { return s.state }

// LeadTime returns the configured lead time.
func (s *Scheduler) LeadTime() time.Duration { return s.lead }

// IsActionError reports whether err came from a failed launch.
func IsActionError(err error) bool {
	var ae *ActionError
	return errors.As(err, &ae)
}
