package errors

import "fmt"

// ErrorCode represents a Loom error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"       // 400
	ErrTransformation ErrorCode = "TRANSFORMATION_FAILED" // 400
	ErrMalformedInput ErrorCode = "MALFORMED_INPUT"       // 422
	ErrNotFound       ErrorCode = "NOT_FOUND"             // 404
	ErrConflict       ErrorCode = "CONFLICT"              // 409
	ErrInternal       ErrorCode = "INTERNAL"              // 500
)

// LoomError represents a structured error with code, status, and details.
type LoomError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *LoomError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *LoomError {
	return &LoomError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewTransformation creates a 400 error for a transformation precondition
// violation (missing column, out-of-range index, un-coercible value,
// rejected query expression).
func NewTransformation(format string, args ...any) *LoomError {
	return &LoomError{
		Code:    ErrTransformation,
		Status:  400,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewMalformedInput creates a 422 error for a table file that cannot be decoded.
func NewMalformedInput(path string, err error) *LoomError {
	msg := fmt.Sprintf("cannot decode table file: %s", path)
	if err != nil {
		msg = fmt.Sprintf("cannot decode table file %s: %v", path, err)
	}
	return &LoomError{
		Code:    ErrMalformedInput,
		Status:  422,
		Message: msg,
		Details: map[string]any{"path": path},
	}
}

// NewNotFound creates a 404 error for a missing project or checkpoint.
func NewNotFound(kind, identifier string) *LoomError {
	return &LoomError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *LoomError {
	return &LoomError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *LoomError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &LoomError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a LoomError with the given code.
func Is(err error, code ErrorCode) bool {
	if lErr, ok := err.(*LoomError); ok {
		return lErr.Code == code
	}
	return false
}
