package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// Behavior selects which exchanges are logged.
type Behavior int

const (
	LogNone Behavior = iota
	LogAll
	LogOnlyFailing
)

// LoggingConfig sets the logging of requests and responses separately.
// Requests only distinguish LogAll from anything else.
type LoggingConfig struct {
	Request  Behavior
	Response Behavior
}

// DefaultLogging logs failing responses only.
var DefaultLogging = LoggingConfig{Request: LogNone, Response: LogOnlyFailing}

// maxLoggedBody bounds the request body written to the log.
const maxLoggedBody = 4 << 10

func (c *Client) logRequest(ctx context.Context, req *http.Request) {
	if c.logging.Request != LogAll {
		return
	}

	attrs := []any{"method", req.Method, "path", req.URL.Path}
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			b, _ := io.ReadAll(io.LimitReader(body, maxLoggedBody))
			_ = body.Close()
			if len(b) > 0 {
				attrs = append(attrs, "body", string(b))
			}
		}
	}

	c.logger.InfoContext(ctx, "request", attrs...)
}

func (c *Client) logResponse(ctx context.Context, path string, resp *Response) {
	failed := !successful(resp.StatusCode)

	switch c.logging.Response {
	case LogAll:
	case LogOnlyFailing:
		if !failed {
			return
		}
	default:
		return
	}

	if failed {
		c.logger.ErrorContext(ctx, "response", "status", resp.StatusCode, "path", path, "message", string(resp.Data))
		return
	}

	c.logger.InfoContext(ctx, "response", slog.Int("status", resp.StatusCode), slog.String("path", path))
}
