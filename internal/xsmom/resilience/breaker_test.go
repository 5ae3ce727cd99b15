package resilience

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_SuccessfulCallPassesThroughResult(t *testing.T) {
	b := New("test-breaker")
	result, err := b.Execute(func() (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestExecute_PropagatesUnderlyingError(t *testing.T) {
	b := New("test-breaker-err")
	boom := errors.New("boom")
	_, err := b.Execute(func() (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestExecute_TripsOpenAfterConsecutiveFailures(t *testing.T) {
	b := New("test-breaker-trip")
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, _ = b.Execute(func() (any, error) { return nil, boom })
	}

	assert.Equal(t, "open", b.State())

	_, err := b.Execute(func() (any, error) { return 1, nil })
	assert.Error(t, err, "an open breaker must reject calls without invoking fn")
}

func TestState_StartsClosed(t *testing.T) {
	b := New("test-breaker-initial")
	assert.Equal(t, "closed", b.State())
}
