package schedule

// FiringState tracks, for the current day, which classes have been opened.
// Classes move pending -> fired only; Reset starts a new day.
type FiringState struct {
	fired map[string]bool
}

func NewFiringState() *FiringState {
	return &FiringState{fired: make(map[string]bool)}
}

// Reset replaces the whole state with the given names, all pending.
// Names from the previous day that are not listed are dropped.
func (s *FiringState) Reset(names []string) {
	s.fired = make(map[string]bool, len(names))
	for _, n := range names {
		s.fired[n] = false
	}
}

// MarkFired flips name to fired. Calling it again is a no-op.
func (s *FiringState) MarkFired(name string) {
	s.fired[name] = true
}

func (s *FiringState) Fired(name string) bool {
	return s.fired[name]
}

// Has reports whether name has an entry for today.
func (s *FiringState) Has(name string) bool {
	_, ok := s.fired[name]
	return ok
}

func (s *FiringState) Len() int { return len(s.fired) }

// Pending returns how many classes are still waiting to fire today.
func (s *FiringState) Pending() int {
	n := 0
	for _, fired := range s.fired {
		if !fired {
			n++
		}
	}
	return n
}
