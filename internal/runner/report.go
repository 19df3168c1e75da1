package runner

import (
	"time"

	appLog "classlaunch/internal/log"
	"classlaunch/internal/schedule"
)

// Reporter prints human-facing status lines. The poll loop evaluates every
// second, so a line is only printed when the decision changes.
type Reporter struct {
	last    schedule.DecisionKind
	lastKey string
	started bool
}

// Report prints d if it differs from the previous decision and reports
// whether anything was printed.
func (r *Reporter) Report(d schedule.Decision) bool {
	key := ""
	if d.Kind != schedule.NoneUpcoming {
		key = d.Next.Name + "@" + d.Next.FireAt.Format(time.RFC3339)
	}
	// Waiting -> ReadyToFire for the same class is the launch itself and is
	// logged by the scheduler.
	if r.started && key == r.lastKey && (d.Kind == r.last || d.Kind == schedule.ReadyToFire) {
		r.last = d.Kind
		return false
	}
	r.started = true
	r.last = d.Kind
	r.lastKey = key

	switch d.Kind {
	case schedule.NoneUpcoming:
		appLog.Info("No more classes for today. Feel free to close this window.")
	default:
		appLog.Info("[RUNNING] Launching "+d.Next.Name+" at "+d.Next.Clock(),
			"class", d.Next.Name,
			"launch_at", d.LaunchAt.Format("15:04"),
		)
	}
	return true
}
