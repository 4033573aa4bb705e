package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("upstream down")

func newTestBreaker(clock *time.Time) *CircuitBreaker {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", FailureThreshold: 2, SuccessThreshold: 2, OpenTimeout: time.Minute})
	cb.now = func() time.Time { return *clock }
	return cb
}

func fail() error { return errDown }
func ok() error   { return nil }

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&clock)

	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), errDown)
	require.Equal(t, CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open breaker must not call through")

	clock = clock.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, CBHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&clock)
	_ = cb.Execute(fail)
	_ = cb.Execute(fail)

	clock = clock.Add(time.Minute)
	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, CBOpen, cb.State())
}

func TestCircuitBreaker_IgnoredErrorsDoNotCount(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&clock)
	notFound := func(err error) bool { return errors.Is(err, ErrCatalogItemNotFound) }

	for i := 0; i < 5; i++ {
		err := cb.Execute(func() error { return ErrCatalogItemNotFound }, notFound)
		assert.ErrorIs(t, err, ErrCatalogItemNotFound)
	}
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&clock)

	_ = cb.Execute(fail)
	require.NoError(t, cb.Execute(ok))
	_ = cb.Execute(fail)
	assert.Equal(t, CBClosed, cb.State(), "failures must be consecutive")
}
