package optimization

import (
	"errors"
	"fmt"
)

// Kind classifies an optimization error so callers can branch on it with
// errors.Is against the sentinel values below.
type Kind string

const (
	// KindUnknown is used for errors that carry no classification.
	KindUnknown Kind = ""
	// KindInvalidConfiguration reports a configuration that must not be
	// silently corrected: mismatched bounds, too few sites, a shrink factor
	// outside [0,1], a missing stopping criterion and similar.
	KindInvalidConfiguration Kind = "invalid_configuration"
	// KindInvalidPoint is raised by objective functions that receive a point
	// of the wrong dimensionality or with non-numeric components.
	KindInvalidPoint Kind = "invalid_point"
	// KindEvaluation wraps any other failure returned by an objective.
	KindEvaluation Kind = "evaluation"
	// KindCancelled reports a run stopped through its context.
	KindCancelled Kind = "cancelled"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrInvalidConfiguration = &Error{Kind: KindInvalidConfiguration, Message: "invalid configuration"}
	ErrInvalidPoint         = &Error{Kind: KindInvalidPoint, Message: "invalid point"}
	ErrEvaluation           = &Error{Kind: KindEvaluation, Message: "objective evaluation failed"}
	ErrCancelled            = &Error{Kind: KindCancelled, Message: "optimization cancelled"}
)

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error of the same, non-empty Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind != KindUnknown && e.Kind == t.Kind
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithKind sets the classification of the error.
func (e *Error) WithKind(kind Kind) *Error {
	e.Kind = kind
	return e
}

// NewError creates a new optimization error with the given message.
func NewError(message string) *Error {
	return &Error{
		Message: message,
	}
}

// NewErrorf creates a new optimization error with formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidConfigurationf creates an error of kind KindInvalidConfiguration.
func InvalidConfigurationf(format string, args ...interface{}) *Error {
	return NewErrorf(format, args...).WithKind(KindInvalidConfiguration)
}

// InvalidPointf creates an error of kind KindInvalidPoint.
func InvalidPointf(format string, args ...interface{}) *Error {
	return NewErrorf(format, args...).WithKind(KindInvalidPoint)
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kindOf(err),
		Message: message,
		Err:     err,
	}
}

// WrapErrorf wraps an existing error with additional formatted context.
// If err is nil, WrapErrorf returns nil.
func WrapErrorf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kindOf(err),
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsOptimizationError checks if an error is of type Error.
// If the error is an optimization error, it returns the error and true.
// Otherwise, it returns nil and false.
func IsOptimizationError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// kindOf inherits the classification of the first *Error in the chain.
func kindOf(err error) Kind {
	if e, ok := IsOptimizationError(err); ok {
		return e.Kind
	}
	return KindUnknown
}
