package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/adamwoolhether/apiclient/client/endpoint"
	"github.com/adamwoolhether/apiclient/client/task"
)

var errDeclined = errors.New("retry declined")

type reauthorizingKey struct{}

// reauthorizing reports whether ctx was handed to Delegate.OnUnauthorized.
// Requests performed with it must not wait on the re-authorization they
// are part of.
func reauthorizing(ctx context.Context) bool {
	marked, _ := ctx.Value(reauthorizingKey{}).(bool)
	return marked
}

// retryUnauthorized returns the recovery step for req. It only acts on a
// 401 of a retryable request: the Delegate re-authorizes, then req is sent
// once more with retries disabled.
func retryUnauthorized[T any](c *Client, req Request[T], sent *attemptState) func(context.Context, error) *task.Task[T] {
	return func(ctx context.Context, err error) *task.Task[T] {
		if !req.RetriesIfUnauthorized() || !IsUnauthorized(err) || reauthorizing(ctx) {
			return nil
		}

		reauth := c.reauthorize(ctx, req.Endpoint.Path, sent.sig, err)

		return task.AndThen(reauth, func(ctx context.Context, _ *endpoint.Signature) *task.Task[T] {
			again := req
			again.opts.noRetry = true

			t, _ := attempt(ctx, c, again)
			return t
		})
	}
}

// reauthorize obtains a fresh signature for a request that was rejected
// while sent with used. Concurrent callers share one Delegate call, and a
// caller whose signature has already been replaced skips it.
//
// orig is surfaced unchanged when the Delegate declines.
func (c *Client) reauthorize(ctx context.Context, path string, used *endpoint.Signature, orig error) *task.Task[*endpoint.Signature] {
	ch := c.reauth.DoChan("reauthorize", func() (any, error) {
		if cur := c.signature.Load(); cur != used {
			return cur, nil
		}

		dctx := context.WithValue(context.WithoutCancel(ctx), reauthorizingKey{}, true)

		t := c.delegate.OnUnauthorized(dctx, path)
		if t == nil {
			return nil, errDeclined
		}

		sig, err := t.Result()
		if err != nil {
			return nil, err
		}
		if sig != nil {
			c.SetSignature(*sig)
		}

		return c.signature.Load(), nil
	})

	return task.Run(ctx, nil, func(ctx context.Context) (*endpoint.Signature, error) {
		select {
		case res := <-ch:
			switch {
			case errors.Is(res.Err, errDeclined):
				return nil, orig
			case res.Err != nil:
				return nil, fmt.Errorf("%w: reauthorizing: %w", orig, res.Err)
			}
			sig, _ := res.Val.(*endpoint.Signature)
			return sig, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}
