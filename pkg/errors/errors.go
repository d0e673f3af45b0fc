package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures so callers can decide between retry, skip and abort.
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeFeedState  ErrorType = "feed_state"
	ErrorTypeExtraction ErrorType = "extraction"
	ErrorTypeTransient  ErrorType = "transient_remote"
	ErrorTypeDuplicate  ErrorType = "duplicate_record"
	ErrorTypeSchema     ErrorType = "schema"
	ErrorTypeDownload   ErrorType = "download"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error is a typed failure. Code carries an HTTP status when one is known.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

// Sentinels for errors.Is checks against a whole class.
var (
	ErrAuthentication = &Error{Type: ErrorTypeAuth}
	ErrFeedState      = &Error{Type: ErrorTypeFeedState}
	ErrExtraction     = &Error{Type: ErrorTypeExtraction}
	ErrTransient      = &Error{Type: ErrorTypeTransient}
	ErrDuplicate      = &Error{Type: ErrorTypeDuplicate}
	ErrSchema         = &Error{Type: ErrorTypeSchema}
	ErrDownload       = &Error{Type: ErrorTypeDownload}
	ErrNotFound       = &Error{Type: ErrorTypeNotFound}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Type) + " error"
	}
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a sentinel of the same type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Err == nil && t.Code == 0 {
		return t.Type == e.Type
	}
	return t == e
}

// New creates a typed error with a formatted message.
func New(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a type and message to an underlying error.
func Wrap(errType ErrorType, err error, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithCode sets the HTTP status and returns the same error.
func (e *Error) WithCode(code int) *Error {
	e.Code = code
	return e
}

// TypeOf returns the type of the first typed error in the chain.
func TypeOf(err error) ErrorType {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsTransient reports whether err is classified as a transient remote failure.
func IsTransient(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeTransient
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	return errorType == ErrorTypeTransient
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // network error
		return true
	case 409, 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
