package parse

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedJSON indicates the payload is not valid JSON.
	ErrMalformedJSON = errors.New("malformed json")
	// ErrMalformedSchema indicates valid JSON that does not fit the target
	// type: a mismatched type, or a missing or invalid value.
	ErrMalformedSchema = errors.New("malformed schema")
	// ErrUnknown covers every other decoding failure.
	ErrUnknown = errors.New("unknown decoding error")
)

// Error is a decoding failure. Kind is one of ErrMalformedJSON,
// ErrMalformedSchema or ErrUnknown.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
