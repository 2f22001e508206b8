package provider

import (
	"errors"
	"fmt"

	"github.com/ctacke/DataNav/pkg/dbcapabilities"
)

// Standard provider errors
var (
	// ErrInvalidArgument is returned for malformed input, e.g. an empty
	// connection name or a bad option value
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists is returned when a connection name is already taken
	ErrAlreadyExists = errors.New("connection already exists")

	// ErrUnsupportedProvider is returned when no factory is registered for
	// a provider type
	ErrUnsupportedProvider = errors.New("unsupported provider type")

	// ErrNotConnected is returned when an operation requires a live session
	ErrNotConnected = errors.New("not connected")

	// ErrExecutionFailed is returned when the backend rejects or fails an
	// operation after the connection was established
	ErrExecutionFailed = errors.New("execution failed")
)

// ExecutionError wraps a post-connect backend failure with the operation that
// produced it. This keeps a consistent error structure across all backends.
type ExecutionError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Cause        error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.DatabaseType, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error.
func (e *ExecutionError) Is(target error) bool {
	if errors.Is(target, ErrExecutionFailed) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(dbType dbcapabilities.DatabaseID, operation string, cause error) *ExecutionError {
	return &ExecutionError{
		DatabaseType: dbType,
		Operation:    operation,
		Cause:        cause,
	}
}

// WrapError wraps a post-connect failure with backend context.
// If the error is already an ExecutionError, it returns it as-is.
func WrapError(dbType dbcapabilities.DatabaseID, operation string, err error) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return err
	}

	return NewExecutionError(dbType, operation, err)
}

// ConfigurationError is returned when a connection option has a malformed
// value. It matches ErrInvalidArgument: bad options are bad input.
type ConfigurationError struct {
	DatabaseType dbcapabilities.DatabaseID
	Field        string
	Reason       string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: field '%s': %s", e.DatabaseType, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.DatabaseType, e.Reason)
}

// Is checks if the error is ErrInvalidArgument.
func (e *ConfigurationError) Is(target error) bool {
	return errors.Is(target, ErrInvalidArgument)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(dbType dbcapabilities.DatabaseID, field string, reason string) *ConfigurationError {
	return &ConfigurationError{
		DatabaseType: dbType,
		Field:        field,
		Reason:       reason,
	}
}

// IsNotConnected checks if an error indicates a missing live session.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsExecutionError checks if an error is a post-connect backend failure.
func IsExecutionError(err error) bool {
	return errors.Is(err, ErrExecutionFailed)
}

// IsAlreadyExists checks if an error is a duplicate-name rejection.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsUnsupportedProvider checks if an error names an unregistered provider type.
func IsUnsupportedProvider(err error) bool {
	return errors.Is(err, ErrUnsupportedProvider)
}

// IsInvalidArgument checks if an error indicates malformed input.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
