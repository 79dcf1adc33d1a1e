package badge

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"two tokens", "Ada Lovelace", "AL"},
		{"lowercase", "grace brewster hopper", "GBH"},
		{"extra whitespace", "  Alan \t Turing  ", "AT"},
		{"single token", "Cher", "C"},
		{"unicode", "émile zola", "ÉZ"},
		{"empty", "", PlaceholderInitials},
		{"whitespace only", "   ", PlaceholderInitials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Initials(tt.in))
		})
	}
}

func TestNewCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-Z]{8}$`)
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		code := NewCode()
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1, "codes should vary")
}

func TestDateLabel(t *testing.T) {
	now := time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
	later := now.Add(3 * time.Hour)
	threeDays := now.AddDate(0, 0, 3)
	nextYear := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "3/5/2024", DateLabel(nil, nil, now))
	assert.Equal(t, "3/5/2024", DateLabel(&now, &later, now))
	assert.Equal(t, "Mar 5 - Mar 8, 2024", DateLabel(&now, &threeDays, now))
	assert.Equal(t, "Mar 5 - Mar 8, 2024", DateLabel(&threeDays, &now, now))
	assert.Equal(t, "Mar 5 - Jan 2, 2025", DateLabel(nil, &nextYear, now))
}

func TestAssemble_FromDraft(t *testing.T) {
	now := time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
	draft := entity.VisitorDraft{
		Name:     "Ada Lovelace",
		Company:  "Acme",
		HostName: "Grace Hopper",
		Purpose:  "Meeting",
	}

	b := Assemble(FromDraft(draft), now)

	assert.Equal(t, "Ada Lovelace", b.Name)
	assert.Equal(t, "AL", b.Initials)
	assert.Equal(t, "Acme", b.Company)
	assert.Equal(t, "Grace Hopper", b.Host)
	assert.Len(t, b.Code, CodeLength)
	assert.Equal(t, "3/5/2024", b.DateLabel)
}

func TestAssemble_EmptyName(t *testing.T) {
	b := Assemble(Details{}, time.Now())
	assert.Equal(t, PlaceholderInitials, b.Initials)
	assert.Empty(t, b.Name)
	assert.NotEmpty(t, b.Code)
}
