package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePhoto, false},
		{StateOTP, false},
		{StateNDA, false},
		{StateHostApproval, false},
		{StateGuardPending, false},
		{StateComplete, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.IsTerminal())
		})
	}
}

func TestState_IsValid(t *testing.T) {
	assert.True(t, StateGuardPending.IsValid())
	assert.False(t, State("").IsValid())
	assert.False(t, State("PHOTO").IsValid())
}

func TestNewBuilder(t *testing.T) {
	builder := NewBuilder()
	require.NotNil(t, builder)

	machine := builder.Build(StateOTP)
	assert.Equal(t, StateOTP, machine.State())
	assert.Empty(t, machine.PermittedTriggers())
}

func TestBuilder_BuildPanicsOnInvalidState(t *testing.T) {
	assert.Panics(t, func() { NewBuilder().Build(State("INVALID")) })
	assert.Panics(t, func() { NewBuilder().Configure(State("INVALID")) })
	assert.Panics(t, func() {
		NewBuilder().Configure(StateOTP).Permit(TriggerAdvance, State("INVALID"))
	})
}

func TestStateMachine_PermitReplacesTarget(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateOTP).
		Permit(TriggerAdvance, StateGuardPending).
		Permit(TriggerAdvance, StateNDA)

	machine := builder.Build(StateOTP)
	require.NoError(t, machine.Fire(context.Background(), TriggerAdvance))
	assert.Equal(t, StateNDA, machine.State())
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateOTP).Permit(TriggerAdvance, StateComplete)

	m1 := builder.Build(StateOTP)
	m2 := builder.Build(StateOTP)

	// configuring after Build must not leak into built machines
	builder.Configure(StateOTP).Permit(TriggerBack, StatePhoto)

	require.NoError(t, m1.Fire(context.Background(), TriggerAdvance))
	assert.Equal(t, StateComplete, m1.State())
	assert.Equal(t, StateOTP, m2.State())
	assert.NotContains(t, m2.PermittedTriggers(), TriggerBack)
}

func TestNewStepMachine_FullSequence(t *testing.T) {
	steps := []State{StatePhoto, StateOTP, StateNDA, StateHostApproval, StateGuardPending, StateComplete}
	machine := NewStepMachine(steps)
	ctx := context.Background()

	assert.Equal(t, StatePhoto, machine.State())
	assert.NotContains(t, machine.PermittedTriggers(), TriggerBack, "first step has no predecessor")

	for _, want := range steps[1:] {
		require.NoError(t, machine.Fire(ctx, TriggerAdvance))
		assert.Equal(t, want, machine.State())
	}

	assert.True(t, machine.State().IsTerminal())
	assert.Empty(t, machine.PermittedTriggers())

	err := machine.Fire(ctx, TriggerAdvance)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestNewStepMachine_Back(t *testing.T) {
	ctx := context.Background()
	machine := NewStepMachine([]State{StateOTP, StateNDA, StateHostApproval, StateComplete})

	// OTP is first, back is not allowed
	assert.True(t, errors.Is(machine.Fire(ctx, TriggerBack), ErrInvalidTransition))

	require.NoError(t, machine.Fire(ctx, TriggerAdvance))
	require.Equal(t, StateNDA, machine.State())

	require.NoError(t, machine.Fire(ctx, TriggerBack))
	assert.Equal(t, StateOTP, machine.State())

	require.NoError(t, machine.Fire(ctx, TriggerAdvance))
	require.NoError(t, machine.Fire(ctx, TriggerAdvance))
	require.Equal(t, StateHostApproval, machine.State())

	assert.NotContains(t, machine.PermittedTriggers(), TriggerBack, "host approval does not support back")
}

func TestNewStepMachine_GuardReject(t *testing.T) {
	ctx := context.Background()
	machine := NewStepMachine([]State{StateGuardPending, StateComplete})

	assert.Contains(t, machine.PermittedTriggers(), TriggerReject)
	require.NoError(t, machine.Fire(ctx, TriggerReject))
	assert.Equal(t, StateRejected, machine.State())
	assert.True(t, machine.State().IsTerminal())
}

func TestNewStepMachine_RejectOnlyFromGuard(t *testing.T) {
	machine := NewStepMachine([]State{StateNDA, StateComplete})
	assert.NotContains(t, machine.PermittedTriggers(), TriggerReject)
}

func TestNewStepMachine_Empty(t *testing.T) {
	machine := NewStepMachine(nil)
	assert.Equal(t, StateComplete, machine.State())
}

func TestNewStepMachine_PermittedTriggersSorted(t *testing.T) {
	ctx := context.Background()
	machine := NewStepMachine([]State{StateNDA, StateGuardPending, StateComplete})
	require.NoError(t, machine.Fire(ctx, TriggerAdvance))

	assert.Equal(t, []Trigger{TriggerAdvance, TriggerReject}, machine.PermittedTriggers())
}
