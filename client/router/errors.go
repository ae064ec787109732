package router

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedURL is returned when the base URL and path do not form an
	// absolute URL.
	ErrMalformedURL = errors.New("malformed url")
	// ErrEncodingRequestFailed is returned when the parameters cannot be
	// serialized for the chosen encoding.
	ErrEncodingRequestFailed = errors.New("encoding request failed")
	// ErrMalformedParameters is returned when multipart encoding is chosen
	// but the parameters are empty or are not multipart parts.
	ErrMalformedParameters = errors.New("malformed parameters")
	// ErrMultipartEncodingFailed is wrapped by MultipartError.
	ErrMultipartEncodingFailed = errors.New("multipart encoding failed")
)

// MultipartError reports why a multipart body could not be written.
type MultipartError struct {
	Reason string
	Err    error
}

func (e *MultipartError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMultipartEncodingFailed, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMultipartEncodingFailed, e.Reason)
}

// Unwrap exposes ErrMultipartEncodingFailed and the underlying cause.
func (e *MultipartError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMultipartEncodingFailed, e.Err}
	}
	return []error{ErrMultipartEncodingFailed}
}
