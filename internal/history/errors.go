package history

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotExist is the backend-level sentinel for a missing record id.
var ErrNotExist = errors.New("history record does not exist")

// NotFoundError reports which record ids a history operation failed to find.
// Batch operations report every missing id and apply no side effects.
type NotFoundError struct {
	IDs []string
}

func (e *NotFoundError) Error() string {
	if len(e.IDs) == 1 {
		return fmt.Sprintf("history record not found: %s", e.IDs[0])
	}
	return fmt.Sprintf("history records not found: %s", strings.Join(e.IDs, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotExist
}

func notFound(ids ...string) *NotFoundError {
	return &NotFoundError{IDs: ids}
}

// IsNotFound reports whether the error names missing history records.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// InvalidRecordError reports a record invariant violation with enough detail
// for the caller to act.
type InvalidRecordError struct {
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record %s: %s", e.Field, e.Reason)
}

// IsInvalidRecord reports whether the error is a record invariant violation.
func IsInvalidRecord(err error) bool {
	var target *InvalidRecordError
	return errors.As(err, &target)
}
