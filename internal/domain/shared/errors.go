// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
// These six kinds form the full failure taxonomy of the engine; every error
// returned across the application boundary maps to exactly one of them.
var (
	// ErrNotFound - the referenced learner or lesson does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrPreconditionFailed - a required prior state is missing
	// (no level selected, lesson not published).
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrPaymentRequired - the content is premium-classified and the
	// learner's subscription does not grant access.
	ErrPaymentRequired = errors.New("payment required")

	// ErrForbidden - a progressive-unlock violation: the lesson sits above
	// the learner's current level and no premium access applies.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict - the operation was already performed (duplicate completion,
	// repeated level selection).
	ErrConflict = errors.New("conflict")

	// ErrInternal - unexpected infrastructure failure.
	ErrInternal = errors.New("internal error")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string         // e.g., "learner", "lesson", "progression"
	Op      string         // Operation that failed, e.g., "Complete", "Activate"
	Kind    error          // Base error type for errors.Is() checking
	Message string         // Human-readable message
	Err     error          // Underlying error (optional)
	Meta    map[string]any // Structured context for the caller (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// WithMeta returns a copy of the error carrying structured context.
// Gate failures use it to tell the caller what would unblock them
// (required level, plan catalog, current balance).
func (e *DomainError) WithMeta(meta map[string]any) *DomainError {
	clone := *e
	clone.Meta = make(map[string]any, len(e.Meta)+len(meta))
	for k, v := range e.Meta {
		clone.Meta[k] = v
	}
	for k, v := range meta {
		clone.Meta[k] = v
	}
	return &clone
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Internalize shields callers from raw storage errors. Domain errors pass
// through unchanged; anything else is surfaced as an Internal-kind failure.
func Internalize(domain, op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return WrapError(domain, op, ErrInternal, "storage failure", err)
}

// Learner domain errors
var (
	ErrLearnerNotFound        = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrLearnerAlreadyExists   = NewDomainError("learner", "Register", ErrConflict, "learner already exists")
	ErrLevelNotSelected       = NewDomainError("learner", "CheckLevel", ErrPreconditionFailed, "learner has not selected a level")
	ErrLevelAlreadySelected   = NewDomainError("learner", "SelectLevel", ErrConflict, "learner already selected a level")
	ErrUnknownLevel           = NewDomainError("learner", "SelectLevel", ErrInvalidInput, "unknown level")
	ErrUnknownPlan            = NewDomainError("learner", "ActivatePlan", ErrInvalidInput, "unknown subscription plan")
	ErrPremiumRequired        = NewDomainError("learner", "CheckAccess", ErrPaymentRequired, "active premium subscription required")
)

// Lesson domain errors
var (
	ErrLessonNotFound     = NewDomainError("lesson", "Find", ErrNotFound, "lesson not found")
	ErrLessonNotPublished = NewDomainError("lesson", "CheckState", ErrPreconditionFailed, "lesson is not published")
)

// Progression domain errors
var (
	ErrLessonLocked          = NewDomainError("progression", "Complete", ErrForbidden, "lesson is locked above learner's current level")
	ErrLessonAlreadyComplete = NewDomainError("progression", "Complete", ErrConflict, "lesson already completed")
	ErrCompletionNotFound    = NewDomainError("progression", "Find", ErrNotFound, "completion record not found")
)

// Streak domain errors
var (
	ErrStreakNotFound = NewDomainError("streak", "Find", ErrNotFound, "streak record not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPreconditionFailed checks if the error is a precondition failure.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}

// IsPaymentRequired checks if the error is a payment gate failure.
func IsPaymentRequired(err error) bool {
	return errors.Is(err, ErrPaymentRequired)
}

// IsForbidden checks if the error is an authorization failure.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsConflict checks if the error is a duplicate-operation conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInternal checks if the error is an infrastructure failure.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}
