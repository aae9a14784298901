package errors

import (
	"errors"
	"fmt"
)

// Exit codes for spawn-ctl
const (
	ExitSuccess           = 0
	ExitGeneralError      = 1
	ExitNotFound          = 2
	ExitAlreadyExists     = 3
	ExitPortExhausted     = 4
	ExitOperationFailed   = 5
	ExitConfigUnavailable = 6
	ExitEngineUnavailable = 7
)

// Sentinels for errors.Is checks. A SpawnError matches the sentinel of its
// exit code, so callers can test the kind without type assertions.
var (
	ErrNotFound          = errors.New("instance not found")
	ErrAlreadyExists     = errors.New("instance already exists")
	ErrPortExhausted     = errors.New("no free port block")
	ErrOperationFailed   = errors.New("operation failed")
	ErrConfigUnavailable = errors.New("agent config unavailable")
	ErrEngineUnavailable = errors.New("container engine unavailable")
)

var sentinels = map[int]error{
	ExitNotFound:          ErrNotFound,
	ExitAlreadyExists:     ErrAlreadyExists,
	ExitPortExhausted:     ErrPortExhausted,
	ExitOperationFailed:   ErrOperationFailed,
	ExitConfigUnavailable: ErrConfigUnavailable,
	ExitEngineUnavailable: ErrEngineUnavailable,
}

// SpawnError is the base error type for spawn-ctl
type SpawnError struct {
	Code    int
	Message string
	Cause   error
}

func (e *SpawnError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SpawnError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's kind.
func (e *SpawnError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// ExitCode returns the exit code for this error
func (e *SpawnError) ExitCode() int {
	return e.Code
}

// New creates a new SpawnError
func New(code int, message string) *SpawnError {
	return &SpawnError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a SpawnError
func Wrap(code int, message string, cause error) *SpawnError {
	return &SpawnError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NotFound returns an error for an instance unknown to the registry
func NotFound(name string) *SpawnError {
	return New(ExitNotFound, fmt.Sprintf("instance not found: %s", name))
}

// AlreadyExists returns an error for a taken instance name
func AlreadyExists(name string) *SpawnError {
	return New(ExitAlreadyExists, fmt.Sprintf("instance already exists: %s", name))
}

// PortExhausted returns an error when the allocator gives up
func PortExhausted(start, tried int) *SpawnError {
	return New(ExitPortExhausted, fmt.Sprintf("no free port block after %d candidates starting at %d", tried, start))
}

// OperationFailed returns an error for a failed engine or probe operation
func OperationFailed(op string, cause error) *SpawnError {
	return Wrap(ExitOperationFailed, fmt.Sprintf("%s failed", op), cause)
}

// ConfigUnavailable returns an error for a missing or unreadable agent config
func ConfigUnavailable(path string, cause error) *SpawnError {
	return Wrap(ExitConfigUnavailable, fmt.Sprintf("agent config unavailable: %s", path), cause)
}

// EngineUnavailable returns an error when the container engine cannot be used
func EngineUnavailable(cause error) *SpawnError {
	return Wrap(ExitEngineUnavailable, "container engine unavailable", cause)
}

// ConfigError returns an error for settings file problems
func ConfigError(message string, cause error) *SpawnError {
	return Wrap(ExitGeneralError, message, cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *SpawnError {
	return New(ExitGeneralError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var spawnErr *SpawnError
	if errors.As(err, &spawnErr) {
		return spawnErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
