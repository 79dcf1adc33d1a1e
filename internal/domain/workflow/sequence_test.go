package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
)

func TestBuildSteps(t *testing.T) {
	tests := []struct {
		name         string
		policy       entity.SecurityPolicy
		isNewVisitor bool
		want         []State
	}{
		{
			name:         "empty policy",
			policy:       entity.SecurityPolicy{},
			isNewVisitor: true,
			want:         []State{StateComplete},
		},
		{
			name: "all flags for a new visitor",
			policy: entity.SecurityPolicy{
				RequirePhoto:          true,
				EnableOtpVerification: true,
				RequireNDA:            true,
				HostApproval:          true,
				GuardApproval:         true,
			},
			isNewVisitor: true,
			want:         []State{StatePhoto, StateOTP, StateNDA, StateHostApproval, StateGuardPending, StateComplete},
		},
		{
			name: "host approval skipped for returning visitor",
			policy: entity.SecurityPolicy{
				EnableOtpVerification: true,
				RequireNDA:            true,
				HostApproval:          true,
				GuardApproval:         true,
			},
			isNewVisitor: false,
			want:         []State{StateOTP, StateNDA, StateGuardPending, StateComplete},
		},
		{
			name:         "guard only",
			policy:       entity.SecurityPolicy{GuardApproval: true},
			isNewVisitor: true,
			want:         []State{StateGuardPending, StateComplete},
		},
		{
			name:         "nda and host",
			policy:       entity.SecurityPolicy{RequireNDA: true, HostApproval: true},
			isNewVisitor: true,
			want:         []State{StateNDA, StateHostApproval, StateComplete},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSteps(tt.policy, tt.isNewVisitor))
		})
	}
}

func TestBuildSteps_AlwaysEndsWithComplete(t *testing.T) {
	flags := []bool{false, true}
	for _, photo := range flags {
		for _, otp := range flags {
			for _, nda := range flags {
				for _, host := range flags {
					for _, guard := range flags {
						for _, isNew := range flags {
							policy := entity.SecurityPolicy{
								RequirePhoto:          photo,
								EnableOtpVerification: otp,
								RequireNDA:            nda,
								HostApproval:          host,
								GuardApproval:         guard,
							}
							steps := BuildSteps(policy, isNew)
							assert.NotEmpty(t, steps)
							assert.Equal(t, StateComplete, steps[len(steps)-1])
							assert.Equal(t, 1, countOf(steps, StateComplete))
							assert.Equal(t, -1, IndexOf(steps, StateRejected))
						}
					}
				}
			}
		}
	}
}

func TestIndexOf(t *testing.T) {
	steps := []State{StateOTP, StateNDA, StateComplete}
	assert.Equal(t, 0, IndexOf(steps, StateOTP))
	assert.Equal(t, 2, IndexOf(steps, StateComplete))
	assert.Equal(t, -1, IndexOf(steps, StatePhoto))
}

func TestProgress(t *testing.T) {
	assert.InDelta(t, 0.25, Progress(0, 4), 1e-9)
	assert.InDelta(t, 0.5, Progress(1, 4), 1e-9)
	assert.InDelta(t, 1.0, Progress(3, 4), 1e-9)
	assert.InDelta(t, 1.0, Progress(0, 1), 1e-9)
	assert.InDelta(t, 1.0, Progress(9, 4), 1e-9)
	assert.InDelta(t, 0.25, Progress(-1, 4), 1e-9)
	assert.InDelta(t, 1.0, Progress(0, 0), 1e-9)
}

func countOf(steps []State, state State) int {
	n := 0
	for _, s := range steps {
		if s == state {
			n++
		}
	}
	return n
}
