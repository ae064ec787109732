package client

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func successful(code int) bool { return code >= 200 && code < 300 }

// validateStatus passes 2xx responses and turns anything else into a
// *StatusError, notifying the Delegate.
func (c *Client) validateStatus(ctx context.Context, path string, resp *Response) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("status", resp.StatusCode))
	c.logResponse(ctx, path, resp)

	if successful(resp.StatusCode) {
		return nil
	}

	err := &StatusError{StatusCode: resp.StatusCode, Body: resp.Data}
	c.notify(ctx, err, path)

	return err
}
