package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() VisitorDraft {
	return VisitorDraft{
		Name:     "Ada Lovelace",
		Company:  "Acme",
		HostName: "Grace Hopper",
		Purpose:  "Meeting",
	}
}

func TestVisitorDraft_Validate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(d *VisitorDraft)
		wantFields []string
	}{
		{"complete", func(d *VisitorDraft) {}, nil},
		{"blank name", func(d *VisitorDraft) { d.Name = "  " }, []string{"name"}},
		{"missing host and purpose", func(d *VisitorDraft) { d.HostName, d.Purpose = "", "" }, []string{"hostName", "purpose"}},
		{"good contact", func(d *VisitorDraft) { d.Email, d.Phone = "ada@example.com", "+44 20 7946 0000" }, nil},
		{"bad email", func(d *VisitorDraft) { d.Email = "ada@" }, []string{"email"}},
		{"bad phone", func(d *VisitorDraft) { d.Phone = "ring ring" }, []string{"phone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			err := d.Validate()
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantFields, verr.Fields)
		})
	}
}

func TestContactPatterns(t *testing.T) {
	assert.True(t, emailPattern.MatchString("ada@example.com"))
	assert.False(t, emailPattern.MatchString("ada@"))
	assert.True(t, phonePattern.MatchString("+1 (555) 010-9999"))
	assert.False(t, phonePattern.MatchString("call me"))
	assert.Equal(t, "Ada", sanitize(" A\x00da\n"))
}

func TestNewVisitRecord(t *testing.T) {
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	d := validDraft()
	d.ID = "visitor-7"
	d.Name = " Ada\tLovelace\n"
	d.PreRegistered = true

	rec := NewVisitRecord("v1", "hq", ChannelKiosk, StatusPendingGuard, d, now)

	assert.Equal(t, "v1", rec.ID)
	assert.Equal(t, "visitor-7", rec.VisitorID)
	assert.Equal(t, "AdaLovelace", rec.Name)
	assert.Equal(t, "Grace Hopper", rec.Host)
	assert.Equal(t, CheckinTypePreRegistered, rec.CheckinType)
	require.NotNil(t, rec.CheckInTime)
	assert.Equal(t, now, *rec.CheckInTime)
	assert.Nil(t, rec.CheckOutTime)
	assert.False(t, rec.IsTerminal())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		channel, from, to string
		want              bool
	}{
		{ChannelKiosk, StatusPendingGuard, StatusCheckedIn, true},
		{ChannelKiosk, StatusPendingGuard, StatusRejected, true},
		{ChannelKiosk, StatusPendingGuard, StatusCheckedOut, false},
		{ChannelKiosk, StatusCheckedIn, StatusCheckedOut, true},
		{ChannelKiosk, StatusCheckedIn, StatusRejected, false},
		{ChannelDesk, StatusCheckedIn, StatusRejected, true},
		{ChannelDesk, StatusCheckedIn, StatusPendingGuard, false},
		{ChannelDesk, StatusRejected, StatusCheckedIn, false},
		{ChannelDesk, StatusCheckedOut, StatusCheckedIn, false},
		{"unknown", StatusCheckedIn, StatusRejected, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.channel, tt.from, tt.to), "%s %s -> %s", tt.channel, tt.from, tt.to)
	}
}

func TestValidateTransition(t *testing.T) {
	rec := &VisitRecord{ID: "v1", Channel: ChannelKiosk, Status: StatusRejected}

	err := ValidateTransition(rec, StatusCheckedIn)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Contains(t, err.Error(), "v1")
	assert.True(t, rec.IsTerminal())
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, IsValidStatus(StatusPendingGuard))
	assert.False(t, IsValidStatus("approved"))

	p := DefaultSecurityPolicy()
	assert.Equal(t, SecurityPolicy{RequirePhoto: true, GuardApproval: true}, p)
}
