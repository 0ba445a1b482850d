package subscriptions

import (
	"errors"
	"fmt"
)

// Repository errors.
var (
	ErrNotFound = errors.New("subscription not found")
)

// Validation errors.
var (
	// ErrMissingField is the sentinel all MissingFieldError values match via errors.Is.
	ErrMissingField = errors.New("missing required field")

	// ErrScheduleInvalid reports a supplied schedule with a malformed time,
	// unknown timezone or out-of-range day of week.
	ErrScheduleInvalid = errors.New("invalid schedule")

	// ErrFieldInvalid reports an update payload field that could not be
	// decoded or carries an unsupported value.
	ErrFieldInvalid = errors.New("invalid field value")

	// ErrNoFieldsToUpdate reports an update payload with no allow-listed fields.
	ErrNoFieldsToUpdate = errors.New("no updatable fields in payload")
)

// MissingFieldError names the first required field a create payload failed
// to supply. The field name is machine-checkable via the Field accessor and
// the "missing_field:<field>" reason code in HTTP responses.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Is matches the ErrMissingField sentinel.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Reason returns the machine-checkable reason code for HTTP responses.
func (e *MissingFieldError) Reason() string {
	return "missing_field:" + e.Field
}
