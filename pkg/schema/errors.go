package schema

import "fmt"

// Error codes for structured error reporting. These cover infrastructure
// failures only (store, config, serving); flow defects are ValidationIssues.
const (
	ErrCodeDecode   = "DECODE_ERROR"
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeStore    = "STORE_ERROR"
	ErrCodeInternal = "INTERNAL_ERROR"
)

// FlowscopeError is the structured error type for all flowscope operations.
type FlowscopeError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *FlowscopeError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *FlowscopeError) Unwrap() error {
	return e.Cause
}

// NewError creates a new FlowscopeError.
func NewError(code, message string) *FlowscopeError {
	return &FlowscopeError{Code: code, Message: message}
}

// NewErrorf creates a new FlowscopeError with a formatted message.
func NewErrorf(code, format string, args ...any) *FlowscopeError {
	return &FlowscopeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches an underlying cause.
func (e *FlowscopeError) WithCause(err error) *FlowscopeError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *FlowscopeError) WithDetails(details map[string]any) *FlowscopeError {
	e.Details = details
	return e
}
