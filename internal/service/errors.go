package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrAuthorizationDenied = errors.New("not allowed")
	ErrInsufficientBalance = errors.New("insufficient point balance")
	ErrNotFound            = errors.New("not found")
	ErrExpired             = errors.New("expired")
	ErrConflict            = errors.New("conflict")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrAccountLocked       = errors.New("account locked")
	ErrTOTPRequired        = errors.New("two-factor code required")
	ErrUnavailable         = errors.New("temporarily unavailable")
)

// ValidationError reports bad input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// LockedError is returned by login while the lock window is open.
type LockedError struct {
	Reason model.LockoutReason
	Until  time.Time
}

func (e *LockedError) Error() string {
	switch e.Reason {
	case model.LockoutAdmin:
		return fmt.Sprintf("account locked by an administrator until %s", e.Until.UTC().Format(time.RFC3339))
	default:
		return fmt.Sprintf("too many failed login attempts, try again after %s", e.Until.UTC().Format(time.RFC3339))
	}
}

func (e *LockedError) Is(target error) bool { return target == ErrAccountLocked }

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func denied(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrAuthorizationDenied)
}

func conflict(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrConflict)
}

// lookupErr maps a repository miss to ErrNotFound and passes anything else
// through unchanged.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return err
}

// writeErr maps unique-constraint violations to ErrConflict.
func writeErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict(msg)
	}
	return err
}
