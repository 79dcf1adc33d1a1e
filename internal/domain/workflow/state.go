package workflow

// State identifies a step of the kiosk check-in workflow
type State string

const (
	StatePhoto        State = "photo"
	StateOTP          State = "otp"
	StateNDA          State = "nda"
	StateHostApproval State = "host_approval"
	StateGuardPending State = "guard_pending"
	StateComplete     State = "complete"
	StateRejected     State = "rejected"
)

var validStates = map[State]bool{
	StatePhoto:        true,
	StateOTP:          true,
	StateNDA:          true,
	StateHostApproval: true,
	StateGuardPending: true,
	StateComplete:     true,
	StateRejected:     true,
}

var terminalStates = map[State]bool{
	StateComplete: true,
	StateRejected: true,
}

// IsTerminal returns true if the state has no outgoing transition
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow step
func (s State) IsValid() bool {
	return validStates[s]
}
