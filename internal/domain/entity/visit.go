package entity

import (
	"fmt"
	"time"
)

// VisitRecord is the durable record of one check-in attempt and its resolution
type VisitRecord struct {
	ID        string `json:"id"`
	VisitorID string `json:"visitorId,omitempty"`
	SiteID    string `json:"siteId"`

	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company"`
	Host    string `json:"host"`
	Purpose string `json:"purpose"`
	Photo   string `json:"photo,omitempty"`

	Status      string `json:"status"`
	Channel     string `json:"channel"`
	CheckinType string `json:"checkinType"`

	CheckInTime  *time.Time `json:"checkInTime"`
	CheckOutTime *time.Time `json:"checkOutTime"`

	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovalTime    *time.Time `json:"approvalTime,omitempty"`
	ApprovalNote    string     `json:"approvalNote,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsTerminal reports whether the record can no longer be approved or rejected
func (v *VisitRecord) IsTerminal() bool {
	return v.Status == StatusRejected || v.Status == StatusCheckedOut
}

// StatusUpdate carries the fields written together with a status change.
// Zero values leave the stored column untouched.
type StatusUpdate struct {
	Status          string
	ApprovedBy      string
	ApprovalTime    *time.Time
	ApprovalNote    string
	RejectionReason string
	CheckInTime     *time.Time
	CheckOutTime    *time.Time
}

// VisitFilter narrows a visit listing
type VisitFilter struct {
	SiteID string
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// statusTransitions lists the permitted forward moves per channel.
// Desk records may additionally be revoked after check-in.
var statusTransitions = map[string]map[string][]string{
	ChannelKiosk: {
		StatusPendingGuard: {StatusCheckedIn, StatusRejected},
		StatusCheckedIn:    {StatusCheckedOut},
	},
	ChannelDesk: {
		StatusPendingGuard: {StatusCheckedIn, StatusRejected},
		StatusCheckedIn:    {StatusCheckedOut, StatusRejected},
	},
}

// CanTransition reports whether a record on the given channel may move from one status to another.
// Nothing ever moves back to pending-guard and checked-out is only reachable from checked-in.
func CanTransition(channel, from, to string) bool {
	table, ok := statusTransitions[channel]
	if !ok {
		table = statusTransitions[ChannelKiosk]
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidStatusTransition wrapped with context when the move is not allowed
func ValidateTransition(record *VisitRecord, to string) error {
	if !CanTransition(record.Channel, record.Status, to) {
		return fmt.Errorf("%w: visit %s cannot move from %s to %s",
			ErrInvalidStatusTransition, record.ID, record.Status, to)
	}
	return nil
}
