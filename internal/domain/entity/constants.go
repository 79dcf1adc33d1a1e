package entity

// Status constants for VisitRecord
const (
	StatusPendingGuard = "pending-guard"
	StatusCheckedIn    = "checked-in"
	StatusCheckedOut   = "checked-out"
	StatusRejected     = "rejected"
)

// Channel constants describe where a visit record was created
const (
	ChannelKiosk = "kiosk" // self-service kiosk workflow
	ChannelDesk  = "desk"  // staffed reception desk
)

// Check-in type constants
const (
	CheckinTypeWalkIn        = "walk-in"
	CheckinTypePreRegistered = "pre-registered"
)

// DefaultRejectionReason is stored and surfaced when a guard rejects without a reason
const DefaultRejectionReason = "No reason provided"

// DefaultActor is recorded as approver when the acting user is unknown
const DefaultActor = "Guard"

var validStatuses = map[string]bool{
	StatusPendingGuard: true,
	StatusCheckedIn:    true,
	StatusCheckedOut:   true,
	StatusRejected:     true,
}

// IsValidStatus returns true if s is a known visit status
func IsValidStatus(s string) bool {
	return validStatuses[s]
}
