package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/apiclient/client/parse"
)

var (
	// ErrFailureStatusCode indicates the server answered outside [200, 300).
	ErrFailureStatusCode = errors.New("failure status code")
	// ErrUnauthorized additionally marks a 401 answer.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedJSONResponse wraps every failure to decode a response body.
	ErrMalformedJSONResponse = errors.New("malformed json response")
)

// StatusError carries the status code and body of a failed response.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	if pretty, ok := parse.PrettyPrint(e.Body); ok {
		return fmt.Sprintf("%v: %d, message: %s", ErrFailureStatusCode, e.StatusCode, pretty)
	}

	return fmt.Sprintf("%v: %d", ErrFailureStatusCode, e.StatusCode)
}

func (e *StatusError) Unwrap() []error {
	if e.StatusCode == http.StatusUnauthorized {
		return []error{ErrFailureStatusCode, ErrUnauthorized}
	}

	return []error{ErrFailureStatusCode}
}

// Message returns the "error" string of a JSON error body, if present.
func (e *StatusError) Message() (string, bool) {
	return parse.ErrorMessage(e.Body)
}

// IsUnauthorized reports whether err carries a 401 StatusError.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}
