// Package errors defines the error catalogue of the hybrid property layer.
package errors

import (
	"errors"
	"fmt"
)

// Usage errors. They are raised while a query is being constructed, never at execution time.
var (
	// ErrExpressionNotRegistered is returned when a property is used on the type side before
	// its query-level computation was registered
	ErrExpressionNotRegistered = errors.New("expression computation not registered")

	// ErrNotAResult is returned when a bare Expression is passed where a comparison is required
	ErrNotAResult = errors.New("argument is not an expression result")

	// ErrNotAnExpression is returned when an Expression Result is passed to Annotate
	ErrNotAnExpression = errors.New("argument is not an expression")

	// ErrInvalidThrough is returned when a through prefix starts or ends with the path separator
	ErrInvalidThrough = errors.New("invalid through prefix")

	// ErrThroughUnsupported is returned when a through prefix is given to a computation that
	// was registered without one
	ErrThroughUnsupported = errors.New("expression computation does not accept a through prefix")

	// ErrUnsupportedLookup is returned for lookups the engine or the layer does not know
	ErrUnsupportedLookup = errors.New("unsupported lookup")

	// ErrInvalidLookupValue is returned when a lookup value has the wrong shape
	ErrInvalidLookupValue = errors.New("invalid lookup value")

	// ErrUnknownField is returned when a field path does not resolve on the model
	ErrUnknownField = errors.New("unknown field")

	// ErrAliasConflict is returned when an annotation alias shadows a model column
	ErrAliasConflict = errors.New("annotation alias conflicts with a field")

	// ErrUnsupportedArgument is returned for argument kinds a query method cannot take
	ErrUnsupportedArgument = errors.New("unsupported argument")
)

// UsageError identifies the call and the argument that misused the API.
type UsageError struct {
	Op  string // query method or builder that rejected the argument
	Arg any    // offending argument
	Err error  // one of the sentinels above
}

// Error implements the error interface
func (e *UsageError) Error() string {
	return fmt.Sprintf("hybrid: %s: %v (arg=%s)", e.Op, e.Err, describe(e.Arg))
}

// Unwrap returns the underlying sentinel
func (e *UsageError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target error
func (e *UsageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewUsageError creates a UsageError
func NewUsageError(op string, arg any, err error) *UsageError {
	return &UsageError{Op: op, Arg: arg, Err: err}
}

// Usagef wraps a sentinel with a formatted detail message.
func Usagef(op string, arg any, err error, format string, args ...any) *UsageError {
	return &UsageError{Op: op, Arg: arg, Err: fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))}
}

// IsUsageError reports whether err was raised by a misuse of the API.
func IsUsageError(err error) bool {
	var usage *UsageError
	return errors.As(err, &usage)
}

// IsUnknownField checks if an error indicates an unresolvable field path
func IsUnknownField(err error) bool {
	return errors.Is(err, ErrUnknownField)
}

// IsUnsupportedLookup checks if an error indicates an unknown or unsupported lookup
func IsUnsupportedLookup(err error) bool {
	return errors.Is(err, ErrUnsupportedLookup)
}

type describer interface {
	Describe() string
}

func describe(arg any) string {
	if d, ok := arg.(describer); ok {
		return d.Describe()
	}
	return fmt.Sprintf("%#v", arg)
}
