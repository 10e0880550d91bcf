// Package apperr defines the centralized error taxonomy for the ingestion
// pipeline.
//
// Architecture:
//
//   - AppError: A struct carrying a machine-readable Code, a human message,
//     and an optional Cause for server-side logging.
//   - Taxonomy: One code per error class named in the pipeline's error
//     handling design, with a constructor for config, network, HTTP status,
//     disk, database and mapper errors, plus the single-run guard's
//     rejection. PARSE_WARNING has a code but no constructor.
//
// Every error that crosses a task boundary is wrapped as an [AppError] so
// the orchestrator can classify outcomes without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Error codes, one per class in the pipeline's error handling design.
const (
	CodeConfigMissing  = "CONFIG_MISSING"
	CodeAlreadyRunning = "ALREADY_RUNNING"
	CodeNetworkError   = "NETWORK_ERROR"
	CodeHTTPStatus     = "HTTP_STATUS"
	CodeDiskError      = "DISK_ERROR"
	CodeDBError        = "DB_ERROR"
	CodeMapperMismatch = "MAPPER_MISMATCH"
	CodeParseWarning   = "PARSE_WARNING"
)

// AppError is the canonical error type for the ingestion pipeline.
//
// # Security
//
// Cause is for server-side logging only; it is never rendered to the HTTP
// trigger's caller.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "DB_ERROR").
	Code string
	// Message is a human-readable description.
	Message string
	// Cause is the underlying error, kept for logging/unwrapping.
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// ConfigMissing reports a fatal startup configuration error.
func ConfigMissing(msg string, cause error) *AppError {
	return &AppError{Code: CodeConfigMissing, Message: msg, Cause: cause}
}

// AlreadyRunning reports that the single-run guard rejected a concurrent trigger.
func AlreadyRunning() *AppError {
	return &AppError{Code: CodeAlreadyRunning, Message: "a pipeline run is already in progress"}
}

// NetworkError wraps a transport-level failure while downloading a dump.
func NetworkError(name string, cause error) *AppError {
	return &AppError{Code: CodeNetworkError, Message: fmt.Sprintf("downloading %s", name), Cause: cause}
}

// HTTPStatus reports a non-2xx response while downloading a dump.
func HTTPStatus(name string, status int) *AppError {
	return &AppError{Code: CodeHTTPStatus, Message: fmt.Sprintf("%s: unexpected status %d", name, status)}
}

// DiskError wraps a local file system failure.
func DiskError(msg string, cause error) *AppError {
	return &AppError{Code: CodeDiskError, Message: msg, Cause: cause}
}

// DBError wraps a failure executing a hook or upsert against the store.
func DBError(action string, cause error) *AppError {
	return &AppError{Code: CodeDBError, Message: action, Cause: cause}
}

// MapperMismatch reports that a literal's kind did not match the row
// mapper's expectation for a positional column.
func MapperMismatch(entity, field string, got any) *AppError {
	return &AppError{
		Code:    CodeMapperMismatch,
		Message: fmt.Sprintf("%s.%s: unexpected literal %#v", entity, field, got),
	}
}

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// Is reports whether err carries the given error code.
func Is(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
