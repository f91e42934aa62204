package deepgram

// State represents the lifecycle state of a pooled session.
type State int32

const (
	// StateIdle means the session sits in the pool, not handed out to a caller.
	StateIdle State = iota

	// StateActive means the session is checked out and streaming audio.
	StateActive

	// StateClosed means the session is retired. Closed is terminal.
	StateClosed
)

// IsTerminal returns true if no further transition can leave the state.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateActive:
		return "Active"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
