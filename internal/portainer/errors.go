package portainer

import (
	"errors"
	"fmt"
)

// TransportError reports a failed exchange with the control plane: either the request
// never produced a response (StatusCode is zero) or the response status was not 2xx.
type TransportError struct {
	// Method is the HTTP method of the failed request.
	Method string
	// Path is the request path relative to the base address.
	Path string
	// StatusCode is the HTTP status, zero for network failures.
	StatusCode int
	// Message is the error message returned by the server, if any.
	Message string
	// Err is the underlying network error, if any.
	Err error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport failure"
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var target *TransportError
	if errors.As(err, &target) {
		return target.StatusCode
	}
	return 0
}

// DecodeError reports a response body that did not match the expected shape.
type DecodeError struct {
	// Method is the HTTP method of the request.
	Method string
	// Path is the request path relative to the base address.
	Path string
	// Err is the underlying decoding error.
	Err error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "decode failure"
	}
	return fmt.Sprintf("decode response of %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}
