package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to HandshakeState
		want     bool
	}{
		{HandshakeIdle, HandshakeRequestShown, true},
		{HandshakeIdle, HandshakeConfirming, false},
		{HandshakeIdle, HandshakeSettled, false},
		{HandshakeRequestShown, HandshakeIdle, true},
		{HandshakeRequestShown, HandshakeConfirming, true},
		{HandshakeRequestShown, HandshakeSettled, false},
		{HandshakeConfirming, HandshakeSettled, true},
		{HandshakeConfirming, HandshakeRequestShown, true},
		{HandshakeConfirming, HandshakeIdle, false},
		{HandshakeSettled, HandshakeIdle, false},
		{HandshakeSettled, HandshakeRequestShown, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestHandshakeState_IsTerminal(t *testing.T) {
	assert.True(t, HandshakeSettled.IsTerminal())
	assert.False(t, HandshakeIdle.IsTerminal())
	assert.False(t, HandshakeRequestShown.IsTerminal())
	assert.False(t, HandshakeConfirming.IsTerminal())
}

func TestSumLines(t *testing.T) {
	lines := []CartLine{
		{Book: Book{ID: 1, Price: 0.1}, Quantity: 3},
		{Book: Book{ID: 2, Price: 0.2}, Quantity: 1},
	}
	assert.Equal(t, "0.5", SumLines(lines).String())
	assert.True(t, SumLines(nil).IsZero())
}
