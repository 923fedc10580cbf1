package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New[string]("test", Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute, HalfOpenRequests: 1}, nil)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)
	}

	_, err := cb.Execute(func() (string, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	cb := New[int]("test", DefaultSettings(), nil)
	v, err := cb.Execute(func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestBreakerIgnoresErrorsMarkedSuccessful(t *testing.T) {
	clientErr := errors.New("bad request")
	cb := New[string]("test", Settings{
		ConsecutiveFailures: 1,
		OpenTimeout:         time.Minute,
		HalfOpenRequests:    1,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, clientErr)
		},
	}, nil)

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (string, error) { return "", clientErr })
		require.ErrorIs(t, err, clientErr)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
