package model

import "time"

// LockoutReason records why an account is locked. Empty means not locked.
type LockoutReason string

const (
	LockoutNone           LockoutReason = ""
	LockoutFailedAttempts LockoutReason = "failed_attempts"
	LockoutAdmin          LockoutReason = "admin"
)

// LockoutPolicy holds the thresholds of the failed-login state machine.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// DefaultLockoutPolicy locks an account for 15 minutes after 3 failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: 3, Duration: 15 * time.Minute}
}

// Lockout is the lockout state embedded in Account. All transitions are value
// methods returning a new snapshot; callers persist the result explicitly.
type Lockout struct {
	FailedAttempts int           `gorm:"not null;default:0"`
	LockoutUntil   *time.Time    `gorm:"index"`
	LockoutReason  LockoutReason `gorm:"type:varchar(20);not null;default:''"`
}

// IsLocked reports whether the lock window is still open at now.
func (l Lockout) IsLocked(now time.Time) bool {
	return l.LockoutUntil != nil && now.Before(*l.LockoutUntil)
}

// Lapsed reports a lock (or counter) left over from a window that already ended.
func (l Lockout) Lapsed(now time.Time) bool {
	return l.LockoutUntil != nil && !now.Before(*l.LockoutUntil)
}

// RegisterFailure counts one failed password check. The second return value is
// true when this failure is the one that locks the account.
func (l Lockout) RegisterFailure(now time.Time, p LockoutPolicy) (Lockout, bool) {
	if l.IsLocked(now) {
		return l, false
	}
	if l.Lapsed(now) {
		l = l.Clear()
	}
	l.FailedAttempts++
	if l.FailedAttempts >= p.MaxAttempts {
		until := now.Add(p.Duration)
		l.LockoutUntil = &until
		l.LockoutReason = LockoutFailedAttempts
		return l, true
	}
	return l, false
}

// AdminLock imposes an administrator timeout ending at now+d.
func (l Lockout) AdminLock(now time.Time, d time.Duration) Lockout {
	until := now.Add(d)
	return Lockout{
		FailedAttempts: l.FailedAttempts,
		LockoutUntil:   &until,
		LockoutReason:  LockoutAdmin,
	}
}

// Clear returns the ACTIVE state.
func (l Lockout) Clear() Lockout {
	return Lockout{}
}

// State names the current lockout state for logs and API responses.
func (l Lockout) State(now time.Time) string {
	if !l.IsLocked(now) {
		return "active"
	}
	switch l.LockoutReason {
	case LockoutAdmin:
		return "locked_by_admin"
	default:
		return "locked_by_attempts"
	}
}
