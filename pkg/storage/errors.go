package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a transaction, top-up request or agent does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidState is returned when a conditional write fails because the record is
// no longer in the state the operation requires, e.g. it is not pending anymore.
var ErrInvalidState = errors.New("record not in a valid state for this operation")

// ErrStaleBalance is returned when a cached balance write is rejected because the
// agent already holds a balance computed from a strictly newer ledger version.
// A write from the same version is accepted and rewrites the cache.
var ErrStaleBalance = errors.New("cached balance computed from an older ledger version")

// ConstraintKind names the class of integrity rule a write violated.
type ConstraintKind string

const (
	ConstraintDuplicate  ConstraintKind = "duplicate"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintCheck      ConstraintKind = "check"
)

// ConstraintError is returned when the backend rejects an insert or update.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s constraint %q violated: %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s constraint violated: %v", e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}
