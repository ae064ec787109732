package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/apiclient/client/endpoint"
	"github.com/adamwoolhether/apiclient/client/fetch"
	"github.com/adamwoolhether/apiclient/client/parse"
	"github.com/adamwoolhether/apiclient/client/router"
	"github.com/adamwoolhether/apiclient/client/task"
)

// Perform sends req and decodes a successful response into a T.
//
// The steps run strictly in order: build, customize, dispatch, the
// request's own validator, the status check and decoding. A failure is
// passed through the Client's ErrorMapper and, when it is a 401 on a
// retryable request, the Delegate is asked to re-authorize before the
// request is sent once more. Canceling the returned Task aborts whichever
// step is outstanding and is never retried.
func Perform[T any](ctx context.Context, c *Client, req Request[T]) *task.Task[T] {
	ctx, cancel := withTimeout(ctx, req.Endpoint.Timeout)
	ctx, span := c.startSpan(ctx, "client.perform", req.Endpoint)

	t, sent := attempt(ctx, c, req)
	t = task.Recover(t, retryUnauthorized(c, req, sent))

	final := t
	return task.Finally(final, func() {
		c.finish(ctx, span, req.Endpoint.Path, final.Err())
		cancel()
	})
}

// PerformSimple builds and dispatches ep, returning the raw response
// without validating or decoding it.
func (c *Client) PerformSimple(ctx context.Context, ep endpoint.Endpoint) *task.Task[*Response] {
	ctx, cancel := withTimeout(ctx, ep.Timeout)
	ctx, span := c.startSpan(ctx, "client.perform_simple", ep)

	t := c.dispatch(ctx, ep, &attemptState{})

	return task.Finally(t, func() {
		c.finish(ctx, span, ep.Path, t.Err())
		cancel()
	})
}

// attemptState records what one attempt was sent with.
type attemptState struct {
	sig *endpoint.Signature
}

// attempt runs the pipeline once, mapping its failure.
func attempt[T any](ctx context.Context, c *Client, req Request[T]) (*task.Task[T], *attemptState) {
	sent := &attemptState{}
	path := req.Endpoint.Path

	resp := c.dispatch(ctx, req.Endpoint, sent)

	validated := task.Then(resp, c.callbacks, func(_ context.Context, r *Response) (*Response, error) {
		if req.opts.validator == nil {
			return r, nil
		}
		if err := req.opts.validator(r); err != nil {
			return nil, fmt.Errorf("validating response: %w", err)
		}
		return r, nil
	})

	checked := task.Then(validated, nil, func(ctx context.Context, r *Response) (*Response, error) {
		return r, c.validateStatus(ctx, path, r)
	})

	decoded := task.Then(checked, c.worker, func(_ context.Context, r *Response) (T, error) {
		v, err := parse.JSON[T](r.Data, req.opts.decode...)
		if err != nil {
			return v, fmt.Errorf("%w: %w", ErrMalformedJSONResponse, err)
		}
		return v, nil
	})

	return task.MapError(decoded, c.mapError), sent
}

// built is a request ready for dispatch.
type built struct {
	req  *http.Request
	file *router.TempFile
}

// dispatch builds ep on the worker queue and sends it. A multipart body
// file is removed once the dispatch is over, even when it never started.
func (c *Client) dispatch(ctx context.Context, ep endpoint.Endpoint, sent *attemptState) *task.Task[*Response] {
	b := task.Run(ctx, c.worker, func(ctx context.Context) (built, error) {
		sig := c.signature.Load()
		sent.sig = sig

		req, file, err := c.router.Build(ctx, ep, sig)
		if err != nil {
			return built{}, err
		}

		if c.customize != nil {
			creq, err := c.customize(req)
			if err != nil {
				c.removeFile(file)
				return built{}, fmt.Errorf("customizing request: %w", err)
			}
			if creq != nil {
				req = creq
			}
		}

		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

		return built{req: req, file: file}, nil
	})

	resp := task.AndThen(b, func(ctx context.Context, b built) *task.Task[*Response] {
		c.logRequest(ctx, b.req)

		if b.file != nil {
			return c.fetcher.Upload(ctx, b.req, b.file)
		}
		return c.fetcher.Fetch(ctx, b.req, fetch.CachePolicy{Store: ep.CacheResponse})
	})

	return task.Finally(resp, func() {
		// The build may have written a file before being canceled.
		if bb, _ := b.Result(); bb.file != nil {
			c.removeFile(bb.file)
		}
	})
}

func (c *Client) removeFile(file *router.TempFile) {
	if err := file.Remove(); err != nil {
		c.logger.Error("failed to remove multipart body", "error", err, "path", file.Path())
	}
}

func (c *Client) mapError(err error) error {
	if c.mapErr == nil {
		return err
	}

	return c.mapErr(err)
}

func (c *Client) startSpan(ctx context.Context, name string, ep endpoint.Endpoint) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("path", ep.Path),
			attribute.String("method", ep.Method.String()),
		),
	)
}

// finish ends span and reports terminal failures that the status check
// has not already reported.
func (c *Client) finish(ctx context.Context, span trace.Span, path string, err error) {
	defer span.End()

	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var se *StatusError
	if errors.As(err, &se) || errors.Is(err, ErrRequestCanceled) {
		return
	}
	c.notify(ctx, err, path)
}

// notify hands err to the Delegate without waiting.
func (c *Client) notify(ctx context.Context, err error, path string) {
	ctx = context.WithoutCancel(ctx)

	if qerr := c.callbacks.Go(ctx, func() { c.delegate.OnError(ctx, err, path) }); qerr != nil {
		c.logger.Debug("delegate not notified", "error", qerr, "path", path)
	}
}
