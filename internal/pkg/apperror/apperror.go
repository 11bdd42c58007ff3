package apperror

import "fmt"

// AppError is an error carrying an HTTP status code and a user-facing message.
type AppError struct {
	Code    int    // HTTP status code (e.g., 400, 404, 409)
	Message string // Human-readable reason, safe to return to clients
	Err     error  // Underlying cause, never exposed to clients
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code int, format string, args ...any) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new AppError wrapping an underlying error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
