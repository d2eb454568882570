package types

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrDonationNotFound = fmt.Errorf("donation %w", ErrNotFound)
	ErrRequestNotFound  = fmt.Errorf("request %w", ErrNotFound)
	ErrUpgradeNotFound  = fmt.Errorf("upgrade request %w", ErrNotFound)

	ErrUserExists         = fmt.Errorf("user already registered: %w", ErrConflict)
	ErrUpgradeOutstanding = fmt.Errorf("an outstanding request already exists: %w", ErrConflict)
)

// InputError builds an ErrInvalidInput carrying a client-facing message.
func InputError(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// TransitionError builds an ErrInvalidTransition naming both states.
func TransitionError(entity string, from, to any) error {
	return fmt.Errorf("%s cannot move from %v to %v: %w", entity, from, to, ErrInvalidTransition)
}
