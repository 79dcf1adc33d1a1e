package workflow

import "github.com/garyjia/visitor-kiosk/internal/domain/entity"

// BuildSteps derives the ordered check-in steps for a policy.
//
// Candidates appear in a fixed priority order and COMPLETE is always last, so
// the result is never empty. Host approval only applies to new visitors.
func BuildSteps(policy entity.SecurityPolicy, isNewVisitor bool) []State {
	steps := make([]State, 0, 6)

	if policy.RequirePhoto {
		steps = append(steps, StatePhoto)
	}
	if policy.EnableOtpVerification {
		steps = append(steps, StateOTP)
	}
	if policy.RequireNDA {
		steps = append(steps, StateNDA)
	}
	if policy.HostApproval && isNewVisitor {
		steps = append(steps, StateHostApproval)
	}
	// guard approval is the last gate before completion
	if policy.GuardApproval {
		steps = append(steps, StateGuardPending)
	}

	return append(steps, StateComplete)
}

// IndexOf returns the position of state in steps, or -1
func IndexOf(steps []State, state State) int {
	for i, s := range steps {
		if s == state {
			return i
		}
	}
	return -1
}

// Progress returns the completed fraction for the step at index in a sequence of total steps
func Progress(index, total int) float64 {
	if total <= 0 {
		return 1
	}
	if index < 0 {
		index = 0
	}
	if index >= total {
		index = total - 1
	}
	return float64(index+1) / float64(total)
}
