package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)

// InsufficientCreditsError reports a balance too low to cover a requested
// spend. Required and Available are surfaced to the client on the 402 path.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// StorageError wraps failures of the object store backend so callers can tell
// a storage outage apart from validation or provider problems.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SynthesisErrorKind classifies image provider failures.
type SynthesisErrorKind string

const (
	SynthesisPolicyRejected SynthesisErrorKind = "policy_rejected"
	SynthesisRateLimited    SynthesisErrorKind = "rate_limited"
	SynthesisAuthInvalid    SynthesisErrorKind = "auth_invalid"
	SynthesisUnknown        SynthesisErrorKind = "unknown"
)

// SynthesisError is the uniform error surface of the image synthesis adapter.
// Message carries the provider's own wording for operator diagnosis.
type SynthesisError struct {
	Kind    SynthesisErrorKind
	Message string
	Err     error
}

func (e *SynthesisError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("synthesis %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("synthesis %s", e.Kind)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
