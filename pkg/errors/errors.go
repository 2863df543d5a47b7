// Package errors provides structured error handling for safecheck.
// It defines the closed set of error kinds a check can fail with, exit codes,
// and helpers for adding context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General/unknown error
	ExitInput    = 2 // Invalid input
	ExitAuth     = 3 // Missing or unusable credentials
	ExitNotFound = 4 // Resource not found
	ExitNetwork  = 5 // Upstream service unreachable or misbehaving
)

// CheckError is the structured error type for safecheck.
type CheckError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *CheckError) Error() string {
	msg := e.Message

	// Details are sorted for deterministic output
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *CheckError) Unwrap() error {
	return e.Cause
}

// Is matches any CheckError carrying the same code.
func (e *CheckError) Is(target error) bool {
	var t *CheckError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &CheckError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &CheckError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrTimeout = &CheckError{
		Code:     "TIMEOUT",
		Message:  "check did not settle before the deadline",
		ExitCode: ExitGeneral,
	}

	// Address parsing.
	ErrInvalidAddress = &CheckError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address",
		ExitCode: ExitInput,
	}

	ErrUnsupportedScheme = &CheckError{
		Code:     "UNSUPPORTED_SCHEME",
		Message:  "address scheme is not supported",
		ExitCode: ExitInput,
	}

	// RPC URL construction.
	ErrMissingAuthToken = &CheckError{
		Code:     "MISSING_AUTH_TOKEN",
		Message:  "RPC endpoint requires an auth token",
		ExitCode: ExitAuth,
	}

	ErrUnrecognizedAuthentication = &CheckError{
		Code:     "UNRECOGNIZED_AUTHENTICATION",
		Message:  "unrecognized RPC authentication kind",
		ExitCode: ExitGeneral,
	}

	// Upstream services.
	ErrNotFound = &CheckError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	ErrNetworkError = &CheckError{
		Code:     "NETWORK_ERROR",
		Message:  "network communication failed",
		ExitCode: ExitNetwork,
	}

	ErrRateLimited = &CheckError{
		Code:     "RATE_LIMITED",
		Message:  "upstream rate limit exceeded",
		ExitCode: ExitNetwork,
	}

	ErrInvalidResponse = &CheckError{
		Code:     "INVALID_RESPONSE",
		Message:  "upstream returned an invalid response",
		ExitCode: ExitNetwork,
	}

	ErrUnsupportedMastercopy = &CheckError{
		Code:     "UNSUPPORTED_MASTERCOPY",
		Message:  "unsupported mastercopy",
		ExitCode: ExitGeneral,
	}

	// Configuration.
	ErrConfigInvalid = &CheckError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &CheckError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}

	ErrInvalidFormat = &CheckError{
		Code:     "INVALID_FORMAT",
		Message:  "invalid format",
		ExitCode: ExitInput,
	}
)

// New creates a new CheckError with the given code and message.
func New(code, message string) *CheckError {
	return &CheckError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var ce *CheckError
	if errors.As(err, &ce) {
		return &CheckError{
			Code:       ce.Code,
			Message:    fmt.Sprintf("%s: %s", msg, ce.Message),
			Details:    ce.Details,
			Suggestion: ce.Suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &CheckError{
		Code:     ErrGeneral.Code,
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithCause attaches an underlying error to a CheckError kind.
// The result still matches the kind with errors.Is.
func WithCause(kind *CheckError, cause error) error {
	return &CheckError{
		Code:       kind.Code,
		Message:    kind.Message,
		Details:    kind.Details,
		Suggestion: kind.Suggestion,
		Cause:      cause,
		ExitCode:   kind.ExitCode,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var ce *CheckError
	if errors.As(err, &ce) {
		return &CheckError{
			Code:       ce.Code,
			Message:    ce.Message,
			Details:    details,
			Suggestion: ce.Suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &CheckError{
		Code:     ErrGeneral.Code,
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var ce *CheckError
	if errors.As(err, &ce) {
		return &CheckError{
			Code:       ce.Code,
			Message:    ce.Message,
			Details:    ce.Details,
			Suggestion: suggestion,
			Cause:      ce.Cause,
			ExitCode:   ce.ExitCode,
		}
	}

	return &CheckError{
		Code:       ErrGeneral.Code,
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrGeneral.Code
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
