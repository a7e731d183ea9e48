package runner

// State is the state of the fail-fast controller.
type State int

const (
	// StateRunning means orchestration continues with the next target.
	StateRunning State = iota
	// StateStopped is terminal: no further targets are executed.
	StateStopped
)

func (s State) String() string {
	if s == StateStopped {
		return "stopped"
	}
	return "running"
}

// FailFast decides after each target whether orchestration must stop.
type FailFast struct {
	enabled bool
	state   State
}

// NewFailFast creates a controller in the running state.
func NewFailFast(enabled bool) *FailFast {
	return &FailFast{enabled: enabled, state: StateRunning}
}

// Observe records a target outcome and returns the new state.
func (f *FailFast) Observe(failed bool) State {
	if failed && f.enabled {
		f.state = StateStopped
	}
	return f.state
}

// State returns the current state.
func (f *FailFast) State() State {
	return f.state
}
