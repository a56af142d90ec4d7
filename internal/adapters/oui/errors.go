package oui

import (
	"errors"
	"fmt"
)

var (
	// ErrVendorNotFound means the prefix is not registered.
	ErrVendorNotFound = errors.New("vendor not found")

	// ErrLocalAddress marks a randomized address; such prefixes are never registered.
	ErrLocalAddress = errors.New("locally administered address")

	ErrRepositoryClosed = errors.New("oui registry closed")
)

// DatabaseError is a registry failure. Prefix is set when one row is at fault.
type DatabaseError struct {
	Op     string
	Prefix string
	Err    error
}

func (e *DatabaseError) Error() string {
	if e.Prefix != "" {
		return fmt.Sprintf("oui %s %s: %v", e.Op, e.Prefix, e.Err)
	}
	return fmt.Sprintf("oui %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
