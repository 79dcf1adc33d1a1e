package workflow

import "context"

// StateMachine tracks the current step and validates transitions
type StateMachine interface {
	State() State
	Fire(ctx context.Context, trigger Trigger) error
	PermittedTriggers() []Trigger
}

// NewStepMachine builds the machine for a derived step sequence.
//
// Every step advances to its successor. OTP and NDA may step back to their
// predecessor, and the guard wait may end in StateRejected. The machine starts
// on the first step of the sequence.
func NewStepMachine(steps []State) StateMachine {
	if len(steps) == 0 {
		steps = []State{StateComplete}
	}

	builder := NewBuilder()
	for i, step := range steps {
		cfg := builder.Configure(step)
		if i+1 < len(steps) {
			cfg.Permit(TriggerAdvance, steps[i+1])
		}
		if i > 0 && (step == StateOTP || step == StateNDA) {
			cfg.Permit(TriggerBack, steps[i-1])
		}
		if step == StateGuardPending {
			cfg.Permit(TriggerReject, StateRejected)
		}
	}

	// COMPLETE and REJECTED are terminal - no outgoing transitions
	return builder.Build(steps[0])
}
