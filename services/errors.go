package services

import (
	"errors"
	"fmt"
)

// ErrInsufficientBalance is returned when a guarded balance decrement
// matches no row (the balance moved under us or was never enough).
var ErrInsufficientBalance = errors.New("insufficient Paloma balance")

// ValidationError rejects bad input before any store write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError covers unresolvable profiles and aliases.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.What)
}

// DependencyError wraps a store failure on a balance-critical step.
// Secondary-step failures (audit, bonus) are logged instead of returned.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}
