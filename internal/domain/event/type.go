package event

// Type identifies the type of domain event
type Type string

const (
	TypeSessionStarted   Type = "session.started"
	TypeSessionStep      Type = "session.step_changed"
	TypeSessionCompleted Type = "session.completed"
	TypeSessionCancelled Type = "session.cancelled"
	TypeSessionRejected  Type = "session.rejected"
	TypeSessionError     Type = "session.error"
	TypeGuardPollChecked Type = "session.guard_poll"
	TypeVisitCreated     Type = "visit.created"
	TypeVisitApproved    Type = "visit.approved"
	TypeVisitRejected    Type = "visit.rejected"
	TypeVisitCheckedOut  Type = "visit.checked_out"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeSessionStarted,
		TypeSessionStep,
		TypeSessionCompleted,
		TypeSessionCancelled,
		TypeSessionRejected,
		TypeSessionError,
		TypeGuardPollChecked,
		TypeVisitCreated,
		TypeVisitApproved,
		TypeVisitRejected,
		TypeVisitCheckedOut:
		return true
	default:
		return false
	}
}
