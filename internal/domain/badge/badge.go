package badge

import (
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

const (
	// PlaceholderInitials is shown when the visitor name has no usable token
	PlaceholderInitials = "VT"

	// CodeLength is the number of characters in a visit code
	CodeLength = 8

	singleDayLayout = "1/2/2006"
)

// Details is the finalized visitor data handed off by a completed check-in
type Details struct {
	Name       string
	Company    string
	Host       string
	Photo      string
	ValidFrom  *time.Time
	ValidUntil *time.Time
}

// Badge is the display model for a printed or on-screen visitor badge
type Badge struct {
	Name      string `json:"name"`
	Initials  string `json:"initials"`
	Company   string `json:"company"`
	Host      string `json:"host"`
	Photo     string `json:"photo,omitempty"`
	Code      string `json:"code"`
	DateLabel string `json:"dateLabel"`
}

// FromDraft builds badge details for a single-day visit
func FromDraft(d entity.VisitorDraft) Details {
	return Details{
		Name:    d.Name,
		Company: d.Company,
		Host:    d.HostName,
		Photo:   d.Photo,
	}
}

// Assemble produces the badge display model. It never fails; missing values fall back to defaults.
func Assemble(d Details, now time.Time) Badge {
	return Badge{
		Name:      strings.TrimSpace(d.Name),
		Initials:  Initials(d.Name),
		Company:   strings.TrimSpace(d.Company),
		Host:      strings.TrimSpace(d.Host),
		Photo:     d.Photo,
		Code:      NewCode(),
		DateLabel: DateLabel(d.ValidFrom, d.ValidUntil, now),
	}
}

// Initials returns the upper-cased first letter of each whitespace separated name token
func Initials(name string) string {
	var b strings.Builder
	for _, token := range strings.Fields(name) {
		r := []rune(token)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	if b.Len() == 0 {
		return PlaceholderInitials
	}
	return b.String()
}

// NewCode returns an opaque upper-case base36 visit code.
// Codes are a display aid and are not guaranteed unique.
func NewCode() string {
	id := uuid.New()
	code := strings.ToUpper(new(big.Int).SetBytes(id[:]).Text(36))
	if len(code) < CodeLength {
		code = strings.Repeat("0", CodeLength-len(code)) + code
	}
	return code[len(code)-CodeLength:]
}

// DateLabel formats the validity window of a badge.
//
// A missing window or a window within one calendar day renders as a single
// date; otherwise both ends are shown with the year of the last day.
func DateLabel(from, until *time.Time, now time.Time) string {
	start := now
	if from != nil {
		start = *from
	}
	if until == nil || sameDay(start, *until) {
		return start.Format(singleDayLayout)
	}

	end := *until
	if end.Before(start) {
		start, end = end, start
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
