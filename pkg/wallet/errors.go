package wallet

import (
	"errors"
	"fmt"

	"github.com/chris/agent-wallet-ledger/pkg/storage"
)

// ErrNotFound is returned when a request, transaction or agent does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidState is returned when an operation is not allowed in the current
// lifecycle state, e.g. deleting a pending request.
var ErrInvalidState = errors.New("invalid state transition")

// ValidationError reports a ledger entry or request that fails business rules
// before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConstraintCategory is the user-facing class of a store integrity violation.
type ConstraintCategory string

const (
	CategoryDuplicate        ConstraintCategory = "duplicate"
	CategoryMissingReference ConstraintCategory = "missing_reference"
	CategoryMissingField     ConstraintCategory = "missing_field"
	CategoryInvalidValue     ConstraintCategory = "invalid_value"
)

// Message returns a human readable description of the category.
func (c ConstraintCategory) Message() string {
	switch c {
	case CategoryDuplicate:
		return "a record with the same unique value already exists"
	case CategoryMissingReference:
		return "the referenced agent does not exist"
	case CategoryMissingField:
		return "a required field is missing"
	default:
		return "a value is outside the allowed range"
	}
}

// ConstraintViolationError is returned when the store rejects a write.
type ConstraintViolationError struct {
	Category   ConstraintCategory
	Constraint string
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Category.Message(), e.Constraint)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

// TransientSyncError reports that the cached balance could not be written after
// all retries. The ledger change that triggered the sync stays committed.
type TransientSyncError struct {
	AgentID  string
	Attempts int
	Err      error
}

func (e *TransientSyncError) Error() string {
	return fmt.Sprintf("balance sync for agent %s failed after %d attempt(s): %v", e.AgentID, e.Attempts, e.Err)
}

func (e *TransientSyncError) Unwrap() error {
	return e.Err
}

// Error classes returned by Classify.
const (
	ClassNotFound     = "not_found"
	ClassInvalidState = "invalid_state"
	ClassValidation   = "validation"
	ClassConstraint   = "constraint_violation"
	ClassSyncDelayed  = "sync_delayed"
	ClassInternal     = "internal"
)

// Classify returns a stable category string for err.
func Classify(err error) string {
	var (
		validation *ValidationError
		constraint *ConstraintViolationError
		transient  *TransientSyncError
	)
	switch {
	case errors.As(err, &validation):
		return ClassValidation
	case errors.As(err, &constraint):
		return ClassConstraint
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrInvalidState):
		return ClassInvalidState
	case errors.As(err, &transient):
		return ClassSyncDelayed
	}
	return ClassInternal
}

// translateStoreError maps storage errors onto the wallet taxonomy, keeping the
// original error in the chain.
func translateStoreError(err error) error {
	if err == nil {
		return nil
	}

	var ce *storage.ConstraintError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, storage.ErrInvalidState):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	case errors.As(err, &ce):
		return &ConstraintViolationError{Category: categoryOf(ce.Kind), Constraint: ce.Constraint, Err: err}
	}
	return err
}

func categoryOf(kind storage.ConstraintKind) ConstraintCategory {
	switch kind {
	case storage.ConstraintDuplicate:
		return CategoryDuplicate
	case storage.ConstraintForeignKey:
		return CategoryMissingReference
	case storage.ConstraintNotNull:
		return CategoryMissingField
	default:
		return CategoryInvalidValue
	}
}
