package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for interview operations.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeServiceUnavailable indicates the service is not available.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeSessionNotFound indicates no usable interview session exists.
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// ErrCodeInterviewNotStarted indicates the interview has not been started.
	ErrCodeInterviewNotStarted ErrorCode = "INTERVIEW_NOT_STARTED"
	// ErrCodeEvaluationFailed indicates answer evaluation failure.
	ErrCodeEvaluationFailed ErrorCode = "EVALUATION_FAILED"
	// ErrCodeLLMUnavailable indicates the LLM service is not available.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// InterviewError represents a structured error for interview operations.
type InterviewError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *InterviewError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *InterviewError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *InterviewError) WithContext(key string, value interface{}) *InterviewError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *InterviewError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *InterviewError {
	return &InterviewError{Code: ErrCodeUnauthorized, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *InterviewError {
	return &InterviewError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *InterviewError {
	return &InterviewError{Code: ErrCodeInvalidArgument, Message: msg}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string) *InterviewError {
	return &InterviewError{Code: ErrCodeServiceUnavailable, Message: msg}
}

// SessionNotFound creates a session not found error.
func SessionNotFound(userID string) *InterviewError {
	return &InterviewError{
		Code:    ErrCodeSessionNotFound,
		Message: fmt.Sprintf("no interview session for user: %s", userID),
	}
}

// InterviewNotStarted creates an interview not started error.
func InterviewNotStarted(msg string) *InterviewError {
	return &InterviewError{Code: ErrCodeInterviewNotStarted, Message: msg}
}

// EvaluationFailed creates an evaluation failed error.
func EvaluationFailed(msg string, cause error) *InterviewError {
	return &InterviewError{Code: ErrCodeEvaluationFailed, Message: msg, Cause: cause}
}

// LLMUnavailable creates an LLM unavailable error.
func LLMUnavailable(msg string) *InterviewError {
	return &InterviewError{Code: ErrCodeLLMUnavailable, Message: msg}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *InterviewError {
	return &InterviewError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *InterviewError {
	return &InterviewError{Code: ErrCodeTimeout, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *InterviewError {
	return &InterviewError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if ie, ok := err.(*InterviewError); ok {
		return ie.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an InterviewError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if ie, ok := err.(*InterviewError); ok {
		return ie.Code
	}
	return defaultCode
}
