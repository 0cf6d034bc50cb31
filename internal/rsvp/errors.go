package rsvp

import (
	"context"
	"errors"
	"fmt"
	storedb "ms-rsvp/internal/rsvp/db"
)

var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrInvalidInput        = errors.New("invalid rsvp")
	ErrSchemaMissing       = errors.New("rsvp table not found")
	ErrStoreUnreachable    = errors.New("rsvp store unreachable")
	ErrWriteFailed         = errors.New("failed to submit rsvp")
	ErrReadFailed          = errors.New("failed to read rsvp responses")
	ErrDuplicateSubmission = errors.New("duplicate rsvp submission")
)

// ValidationError carries the per-field messages for a malformed request.
type ValidationError struct {
	Details string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Details)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassValidation
	ClassConfiguration
	ClassConnectivity
	ClassDuplicate
	ClassUnknown
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassValidation:
		return "validation"
	case ClassConfiguration:
		return "configuration"
	case ClassConnectivity:
		return "connectivity"
	case ClassDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidInput):
		return ClassValidation
	case errors.Is(err, ErrSchemaMissing):
		return ClassConfiguration
	case errors.Is(err, ErrStoreUnreachable):
		return ClassConnectivity
	case errors.Is(err, ErrDuplicateSubmission):
		return ClassDuplicate
	default:
		return ClassUnknown
	}
}

// storeError maps a store failure onto the service taxonomy. fallback is used
// when the store could not say what went wrong.
func storeError(fallback, err error) error {
	switch {
	case errors.Is(err, storedb.ErrTableMissing):
		return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
	case errors.Is(err, storedb.ErrUnreachable), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrStoreUnreachable, err)
	default:
		return fmt.Errorf("%w: %w", fallback, err)
	}
}
