package entity

import (
	"regexp"
	"strings"
	"time"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{6,20}$`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// VisitorDraft is the in-progress, unpersisted visitor input of one kiosk session
type VisitorDraft struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Company       string `json:"company"`
	HostName      string `json:"hostName"`
	Purpose       string `json:"purpose"`
	Photo         string `json:"photo,omitempty"`
	AgreedToTerms bool   `json:"agreedToTerms"`
	PreRegistered bool   `json:"preRegistered"`
}

// Validate checks the fields required before a workflow may start
func (d VisitorDraft) Validate() error {
	var missing []string
	required := []struct {
		field string
		value string
	}{
		{"name", d.Name},
		{"company", d.Company},
		{"hostName", d.HostName},
		{"purpose", d.Purpose},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	// email and phone are optional but must be well formed when given
	if email := strings.TrimSpace(d.Email); email != "" && !emailPattern.MatchString(email) {
		missing = append(missing, "email")
	}
	if phone := strings.TrimSpace(d.Phone); phone != "" && !phonePattern.MatchString(phone) {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// CheckinType derives the visit check-in type from the draft origin
func (d VisitorDraft) CheckinType() string {
	if d.PreRegistered {
		return CheckinTypePreRegistered
	}
	return CheckinTypeWalkIn
}

// NewVisitRecord denormalizes the draft into a visit record owned by siteID.
// Text fields are stripped of control characters.
func NewVisitRecord(id, siteID, channel, status string, d VisitorDraft, now time.Time) *VisitRecord {
	checkIn := now
	return &VisitRecord{
		ID:          id,
		VisitorID:   d.ID,
		SiteID:      siteID,
		Name:        sanitize(d.Name),
		Email:       sanitize(d.Email),
		Phone:       sanitize(d.Phone),
		Company:     sanitize(d.Company),
		Host:        sanitize(d.HostName),
		Purpose:     sanitize(d.Purpose),
		Photo:       d.Photo,
		Status:      status,
		Channel:     channel,
		CheckinType: d.CheckinType(),
		CheckInTime: &checkIn,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// sanitize drops control characters and surrounding whitespace
func sanitize(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
