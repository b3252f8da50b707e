package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every backend. Callers test with errors.Is.
var (
	// ErrNotFound is returned by strict reads that expected exactly one row.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when a store opens but its content cannot
	// be decrypted with the given secret.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidID is returned when an entity is created with InvalidID.
	ErrInvalidID = errors.New("invalid id")
)

// SchemaErrorCode categorizes schema and migration failures.
type SchemaErrorCode string

const (
	// SchemaGap means no update script exists for a required step.
	SchemaGap SchemaErrorCode = "SCHEMA_GAP"

	// SchemaNewer means the persisted version is newer than this build.
	SchemaNewer SchemaErrorCode = "SCHEMA_NEWER"

	// SchemaStepFailed means an update script failed and was rolled back.
	SchemaStepFailed SchemaErrorCode = "SCHEMA_STEP_FAILED"

	// SchemaInvalid means the embedded schema carries no usable version.
	SchemaInvalid SchemaErrorCode = "SCHEMA_INVALID"
)

// SchemaError reports a failure to bring a store to the declared schema
// version. Opening the store is aborted.
type SchemaError struct {
	Code SchemaErrorCode

	// Step is the version the failed update would have produced (0 if not
	// tied to a step).
	Step int

	Message string
	Err     error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Step > 0 {
		msg = fmt.Sprintf("%s: %s (step %d)", e.Code, e.Message, e.Step)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsSchemaError returns true if err is, or wraps, a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// SchemaStep returns the step of a wrapped SchemaError, or 0.
func SchemaStep(err error) int {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Step
	}
	return 0
}
