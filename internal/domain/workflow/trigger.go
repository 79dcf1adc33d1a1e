package workflow

// Trigger represents an event that can cause a step transition
type Trigger string

const (
	// TriggerAdvance completes the current step and moves to the next one in the sequence
	TriggerAdvance Trigger = "ADVANCE"
	// TriggerBack is the OTP/NDA "back" affordance; it bypasses step completion
	TriggerBack Trigger = "BACK"
	// TriggerReject ends the guard wait with a rejection
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
