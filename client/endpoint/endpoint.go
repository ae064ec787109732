package endpoint

import (
	"net/http"
	"time"
)

// Method is an HTTP request method.
type Method string

const (
	GET     Method = http.MethodGet
	POST    Method = http.MethodPost
	PUT     Method = http.MethodPut
	DELETE  Method = http.MethodDelete
	OPTIONS Method = http.MethodOptions
	HEAD    Method = http.MethodHead
	PATCH   Method = http.MethodPatch
	TRACE   Method = http.MethodTrace
	CONNECT Method = http.MethodConnect
)

// String returns the wire form of m. The zero Method is GET.
func (m Method) String() string {
	if m == "" {
		return string(GET)
	}
	return string(m)
}

// Encoding selects how an Endpoint's parameters travel on the wire.
type Encoding int

const (
	// URL appends the parameters to the query string.
	URL Encoding = iota
	// JSON sends the parameters as a JSON object body.
	JSON
	// Multipart sends the parameters as a multipart/form-data body.
	Multipart
)

func (e Encoding) String() string {
	switch e {
	case URL:
		return "url"
	case JSON:
		return "json"
	case Multipart:
		return "multipart"
	default:
		return "unknown"
	}
}

// Endpoint describes one API call. The zero value of every field is a
// usable default: GET, query-string encoding, no headers and no caching.
type Endpoint struct {
	// Path is appended verbatim to the environment's base URL.
	Path   string
	Method Method

	// Parameters are encoded according to ParameterEncoding.
	Parameters Params
	// EncodableParameters, when set, replaces Parameters as the body of a
	// JSON-encoded request. It is marshaled with encoding/json.
	EncodableParameters any
	ParameterEncoding   Encoding

	Headers map[string]string

	// CacheResponse stores a successful response in the client's cache.
	CacheResponse bool

	// Timeout bounds the whole request, an unauthorized retry included.
	// Zero leaves only the client's own timeout.
	Timeout time.Duration
}
