/*
errors.go - Error taxonomy for attendance actions

PURPOSE:
  All error types in one place. Three categories, matching how callers
  must respond:
  1. ValidationError     - one or more rule violations; user-facing,
                           never fatal (HTTP 422)
  2. StateConflictError  - clock action invalid for the record's
                           current state, e.g. double clock-in;
                           surfaced like a validation failure (HTTP 422)
  3. AuthorizationError  - acting user does not own the record
                           (HTTP 403, no field-level message)

  Plus storage sentinels (ErrRecordNotFound, ErrDuplicateEntry) that
  store implementations return and the tracker translates.

USAGE:
  var verr *attendance.ValidationError
  if errors.As(err, &verr) {
      // render verr.ByField() as a 422 payload
  }

SEE ALSO:
  - validator.go: Produces the FieldError lists
  - tracker package: Translates store sentinels into these types
*/
package attendance

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRecordNotFound is returned when a referenced attendance record
	// does not exist (or is soft-deleted).
	ErrRecordNotFound = errors.New("attendance record not found")

	// ErrDuplicateEntry is returned by stores when an insert collides
	// with the unique (user, date) index. This is how concurrent double
	// clock-ins are caught at the data layer.
	ErrDuplicateEntry = errors.New("attendance entry already exists for this date")
)

// =============================================================================
// VALIDATION ERROR - Ordered list of rule violations
// =============================================================================

// FieldError is a single rule violation attributed to a field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries the ordered list of rule violations from a
// validation pass. It is always recoverable.
type ValidationError struct {
	Errors []FieldError
}

func NewValidationError(errs ...FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return "validation failed: " + strings.Join(msgs, " ")
}

// Messages returns the violation messages in order.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return msgs
}

// ByField groups messages by field, preserving per-field order.
func (e *ValidationError) ByField() map[string][]string {
	out := make(map[string][]string, len(e.Errors))
	for _, fe := range e.Errors {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// =============================================================================
// STATE CONFLICT - Transition invalid for current record state
// =============================================================================

// StateConflictError reports a clock action that is not legal for the
// record's current state (e.g. starting lunch before clocking in).
type StateConflictError struct {
	Field   string // which aspect conflicted: "date", "shift", "lunch", "attendance"
	Message string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("state conflict (%s): %s", e.Field, e.Message)
}

// AsValidation renders the conflict in the same shape as a validation
// failure, which is how it is surfaced to clients.
func (e *StateConflictError) AsValidation() *ValidationError {
	return NewValidationError(FieldError{Field: e.Field, Message: e.Message})
}

// =============================================================================
// AUTHORIZATION ERROR - Acting user does not own the record
// =============================================================================

type AuthorizationError struct {
	UserID   string
	RecordID RecordID
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s is not authorized to modify attendance entry %s", e.UserID, e.RecordID)
}
