package client

import (
	"github.com/adamwoolhether/apiclient/client/endpoint"
	"github.com/adamwoolhether/apiclient/client/parse"
)

// Validator inspects a response before its status is checked. A non-nil
// error fails the request.
type Validator func(*Response) error

// Request pairs an Endpoint with the type its response decodes into.
type Request[T any] struct {
	Endpoint endpoint.Endpoint
	opts     requestOpts
}

// RequestOption is a functional option for [NewRequest].
type RequestOption func(*requestOpts)

type requestOpts struct {
	noRetry   bool
	validator Validator
	decode    []parse.Option
}

// NewRequest returns a Request for ep. Unauthorized responses are retried
// once unless WithoutUnauthorizedRetry is given.
func NewRequest[T any](ep endpoint.Endpoint, optFns ...RequestOption) Request[T] {
	var opts requestOpts
	for _, opt := range optFns {
		opt(&opts)
	}

	return Request[T]{Endpoint: ep, opts: opts}
}

// WithoutUnauthorizedRetry surfaces a 401 without consulting the Delegate.
func WithoutUnauthorizedRetry() RequestOption {
	return func(o *requestOpts) { o.noRetry = true }
}

// WithValidator runs fn on the response ahead of the status check.
func WithValidator(fn Validator) RequestOption {
	return func(o *requestOpts) { o.validator = fn }
}

// WithDecodeOptions configures how the response body is decoded.
func WithDecodeOptions(opts ...parse.Option) RequestOption {
	return func(o *requestOpts) { o.decode = append(o.decode, opts...) }
}

// RetriesIfUnauthorized reports whether a 401 answer is retried.
func (r Request[T]) RetriesIfUnauthorized() bool { return !r.opts.noRetry }
