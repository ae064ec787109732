package client

import (
	"context"

	"github.com/adamwoolhether/apiclient/client/endpoint"
	"github.com/adamwoolhether/apiclient/client/task"
)

// Delegate is consulted by a [Client] when requests fail.
type Delegate interface {
	// OnUnauthorized is called when a request answered 401 and may be
	// retried. The returned task re-authorizes; its Signature, when non-nil,
	// replaces the Client's before the retry. Returning a nil task declines
	// the retry. Requests the Delegate performs with ctx, such as a token
	// refresh through the same Client, are never retried themselves.
	OnUnauthorized(ctx context.Context, path string) *task.Task[*endpoint.Signature]

	// OnError is notified of failures. It must not block for long: it runs
	// on the Client's callback queue.
	OnError(ctx context.Context, err error, path string)
}

// NopDelegate declines every retry and ignores errors.
type NopDelegate struct{}

func (NopDelegate) OnUnauthorized(context.Context, string) *task.Task[*endpoint.Signature] {
	return nil
}

func (NopDelegate) OnError(context.Context, error, string) {}
