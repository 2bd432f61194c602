package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending cannot skip to preparing", StatusPending, StatusPreparing, false},
		{"confirmed to preparing", StatusConfirmed, StatusPreparing, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"preparing to ready", StatusPreparing, StatusReady, true},
		{"preparing to cancelled", StatusPreparing, StatusCancelled, true},
		{"ready to delivered", StatusReady, StatusDelivered, true},
		{"ready cannot be cancelled", StatusReady, StatusCancelled, false},
		{"ready cannot go back to preparing", StatusReady, StatusPreparing, false},
		{"delivered is absorbing", StatusDelivered, StatusPending, false},
		{"cancelled is absorbing", StatusCancelled, StatusConfirmed, false},
		{"same status is not a transition", StatusReady, StatusReady, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())

	for _, s := range []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady} {
		assert.False(t, s.IsTerminal(), s)
	}
}

func TestTerminalStatesAllowNothing(t *testing.T) {
	all := []Status{
		StatusPending, StatusConfirmed, StatusPreparing,
		StatusReady, StatusDelivered, StatusCancelled,
	}

	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		for _, target := range all {
			assert.False(t, terminal.CanTransitionTo(target),
				"%s must not allow %s", terminal, target)
		}
	}
}

func TestAllowedNextReturnsCopy(t *testing.T) {
	next := StatusPending.AllowedNext()
	require.NotEmpty(t, next)

	next[0] = StatusDelivered
	assert.Equal(t, StatusConfirmed, StatusPending.AllowedNext()[0])
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("preparing")
	require.NoError(t, err)
	assert.Equal(t, StatusPreparing, s)

	_, err = ParseStatus("on_the_way")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ParseStatus("")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
