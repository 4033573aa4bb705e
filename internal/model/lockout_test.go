package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// ── Failed attempts ───────────────────────────────────────────────────────────

func TestLockout_LocksOnThirdFailure(t *testing.T) {
	p := DefaultLockoutPolicy()
	l := Lockout{}

	l, locked := l.RegisterFailure(t0, p)
	assert.False(t, locked)
	assert.Equal(t, 1, l.FailedAttempts)

	l, locked = l.RegisterFailure(t0.Add(time.Second), p)
	assert.False(t, locked)
	assert.Equal(t, 2, l.FailedAttempts)
	assert.False(t, l.IsLocked(t0))

	l, locked = l.RegisterFailure(t0.Add(2*time.Second), p)
	require.True(t, locked)
	assert.Equal(t, LockoutFailedAttempts, l.LockoutReason)
	require.NotNil(t, l.LockoutUntil)
	assert.Equal(t, t0.Add(2*time.Second+15*time.Minute), *l.LockoutUntil)
	assert.Equal(t, "locked_by_attempts", l.State(t0.Add(time.Minute)))
}

func TestLockout_FailureWhileLockedIsIgnored(t *testing.T) {
	p := DefaultLockoutPolicy()
	until := t0.Add(10 * time.Minute)
	l := Lockout{FailedAttempts: 3, LockoutUntil: &until, LockoutReason: LockoutFailedAttempts}

	next, locked := l.RegisterFailure(t0, p)
	assert.False(t, locked)
	assert.Equal(t, l, next, "lock window must not be extended")
}

func TestLockout_ExpiresAtWindowEnd(t *testing.T) {
	until := t0.Add(15 * time.Minute)
	l := Lockout{FailedAttempts: 3, LockoutUntil: &until, LockoutReason: LockoutFailedAttempts}

	assert.True(t, l.IsLocked(until.Add(-time.Nanosecond)))
	assert.False(t, l.IsLocked(until), "the window is half-open")
	assert.True(t, l.Lapsed(until))
	assert.Equal(t, "active", l.State(until))
}

func TestLockout_FailureAfterLapseStartsNewCount(t *testing.T) {
	p := DefaultLockoutPolicy()
	until := t0
	l := Lockout{FailedAttempts: 3, LockoutUntil: &until, LockoutReason: LockoutFailedAttempts}

	next, locked := l.RegisterFailure(t0.Add(time.Minute), p)
	assert.False(t, locked)
	assert.Equal(t, 1, next.FailedAttempts)
	assert.Nil(t, next.LockoutUntil)
	assert.Equal(t, LockoutNone, next.LockoutReason)
}

func TestLockout_CustomPolicy(t *testing.T) {
	p := LockoutPolicy{MaxAttempts: 1, Duration: time.Hour}

	l, locked := Lockout{}.RegisterFailure(t0, p)
	assert.True(t, locked)
	assert.True(t, l.IsLocked(t0.Add(59*time.Minute)))
	assert.False(t, l.IsLocked(t0.Add(time.Hour)))
}

// ── Administrator timeout ─────────────────────────────────────────────────────

func TestLockout_AdminLockAutoExpires(t *testing.T) {
	l := Lockout{FailedAttempts: 1}.AdminLock(t0, 30*time.Minute)

	assert.Equal(t, LockoutAdmin, l.LockoutReason)
	assert.Equal(t, 1, l.FailedAttempts)
	assert.Equal(t, "locked_by_admin", l.State(t0.Add(29*time.Minute)))
	assert.False(t, l.IsLocked(t0.Add(30*time.Minute)))
}

func TestLockout_Clear(t *testing.T) {
	l := Lockout{}.AdminLock(t0, time.Hour)
	assert.Equal(t, Lockout{}, l.Clear())
	assert.Equal(t, "active", l.Clear().State(t0))
}
