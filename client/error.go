package client

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every configuration error.
	ErrInvalidConfig = errors.New("invalid request configuration")

	ErrBodyAlreadySet     = fmt.Errorf("%w: body is already set", ErrInvalidConfig)
	ErrEncodingAfterParam = fmt.Errorf("%w: encoding must be set before any param", ErrInvalidConfig)
	ErrRequestSent        = fmt.Errorf("%w: request was already sent", ErrInvalidConfig)
	ErrInvalidEncoding    = errors.New("invalid encoding")

	// ErrNoContent is returned when a response body was not captured.
	ErrNoContent = errors.New("content does not exist")

	// ErrRejected is wrapped when an Executor refuses an async execution.
	ErrRejected = errors.New("executor rejected request")
)

// RequestError is returned when a request could not be sent or its
// response could not be received.
type RequestError struct {
	Method Method
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("failed to access %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// configErr wraps a plain message as a configuration error.
func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
