package translation

import (
	"errors"
	"fmt"
)

// Synthetic provider error codes for failures the provider reports by
// omission rather than by an explicit error code.
const (
	CodeEmptyResult             = "empty_result"
	CodeMissingLanguageMetadata = "missing_language_metadata"
)

// ValidationError reports a local pre-flight failure. It is raised before any
// transport activity and is never retried automatically.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError reports a remote-reported failure, mapped to a human message.
// Retry policy, if any, belongs to the caller.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
}

// TransportError reports a connectivity or timeout failure. Callers may retry.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsProviderError(err error) bool {
	var target *ProviderError
	return errors.As(err, &target)
}

func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
