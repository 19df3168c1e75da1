package schedule

import (
	"time"

	"classlaunch/internal/model"
)

// DefaultLeadTime is how long before a class starts it is opened.
const DefaultLeadTime = 5 * time.Minute

// DecisionKind is the outcome of one evaluation of the agenda.
type DecisionKind int

const (
	// NoneUpcoming: nothing left to open today. Terminal until the next
	// day's agenda is built.
	NoneUpcoming DecisionKind = iota
	// Waiting: the next class is known but its lead window has not opened.
	Waiting
	// ReadyToFire: the next class is inside its lead window and unfired.
	ReadyToFire
)

func (k DecisionKind) String() string {
	switch k {
	case NoneUpcoming:
		return "none-upcoming"
	case Waiting:
		return "waiting"
	case ReadyToFire:
		return "ready"
	default:
		return "unknown"
	}
}

// Decision is the result of Select. Next is the zero value for NoneUpcoming.
type Decision struct {
	Kind DecisionKind
	Next model.TodayOccurrence

	// LaunchAt is Next.FireAt minus the lead time.
	LaunchAt time.Time
}

// Select picks the earliest agenda entry that starts after now and whose
// class has not fired today. Agenda order breaks ties, so for two classes
// at the same instant the first defined is chosen first and the second on
// the following evaluation.
//
// Only the candidate's state is consulted: an unfired candidate implies
// that not every class has fired.
func Select(agenda []model.TodayOccurrence, now time.Time, state *FiringState, lead time.Duration) Decision {
	for _, occ := range agenda {
		if !occ.FireAt.After(now) {
			continue
		}
		if state.Fired(occ.Name) {
			continue
		}

		launchAt := occ.FireAt.Add(-lead)
		kind := Waiting
		if !now.Before(launchAt) {
			kind = ReadyToFire
		}
		return Decision{Kind: kind, Next: occ, LaunchAt: launchAt}
	}
	return Decision{Kind: NoneUpcoming}
}
