package download

// State is a step of the download loop
type State int32

const (
	StateAttempting State = iota
	StateTransientFailure
	StateBanned
	StateSucceeded
	StateExhaustedFatal
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case StateAttempting:
		return "Attempting"
	case StateTransientFailure:
		return "TransientFailure"
	case StateBanned:
		return "Banned"
	case StateSucceeded:
		return "Succeeded"
	case StateExhaustedFatal:
		return "ExhaustedFatal"
	default:
		return "Unknown"
	}
}
