package operation

// Phase is the controller state; exactly one is active at a time
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
	PhaseCancelled Phase = "cancelled"
	PhaseTimedOut  Phase = "timed_out"
)

// Terminal reports whether the phase only changes on a new Start
func (p Phase) Terminal() bool {
	switch p {
	case PhaseSucceeded, PhaseFailed, PhaseCancelled, PhaseTimedOut:
		return true
	}
	return false
}

// Failed reports whether the phase should surface as an error to the user
func (p Phase) Failed() bool { return p == PhaseFailed || p == PhaseTimedOut }
