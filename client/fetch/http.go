package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/apiclient/client/cache"
	"github.com/adamwoolhether/apiclient/client/router"
	"github.com/adamwoolhether/apiclient/client/task"
)

// uploadShare is the part of an upload's progress attributed to sending
// the request body.
const uploadShare = 0.9

// HTTP is a Fetcher over an *http.Client.
type HTTP struct {
	client *http.Client
	cache  cache.Cache
	logger *slog.Logger
}

// Option is a functional option for configuring an [HTTP] fetcher.
type Option func(*HTTP) error

// WithCache sets the response cache. The default stores nothing.
func WithCache(c cache.Cache) Option {
	return func(h *HTTP) error {
		if c == nil {
			return errors.New("cache must not be nil")
		}
		h.cache = c
		return nil
	}
}

// WithLogger sets the logger used for errors that cannot be returned.
func WithLogger(logger *slog.Logger) Option {
	return func(h *HTTP) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		h.logger = logger
		return nil
	}
}

// NewHTTP returns a Fetcher sending requests with hc.
func NewHTTP(hc *http.Client, optFns ...Option) (*HTTP, error) {
	if hc == nil {
		return nil, errors.New("http client must not be nil")
	}

	h := &HTTP{
		client: hc,
		cache:  cache.NoOp{},
		logger: slog.Default(),
	}

	for _, opt := range optFns {
		if err := opt(h); err != nil {
			return nil, fmt.Errorf("applying fetcher option: %w", err)
		}
	}

	return h, nil
}

// Fetch sends req unless an entry for it is cached.
func (h *HTTP) Fetch(ctx context.Context, req *http.Request, policy CachePolicy) *task.Task[*Response] {
	return task.Run(ctx, nil, func(ctx context.Context) (*Response, error) {
		key, err := Key(req)
		if err != nil {
			h.logger.Error("computing cache key", "error", err)
		}

		if key != "" {
			e, err := h.cache.Get(ctx, key)
			switch {
			case err == nil:
				return &Response{Data: bytes.Clone(e.Data), StatusCode: e.StatusCode, Header: e.Header.Clone()}, nil
			case !errors.Is(err, cache.ErrNotFound):
				h.logger.Error("reading response cache", "error", err, "url", req.URL.Redacted())
			}
		}

		resp, err := h.do(ctx, req.WithContext(ctx), 0)
		if err != nil {
			return nil, err
		}

		if policy.Store && key != "" && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			e := &cache.Entry{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Data: bytes.Clone(resp.Data), StoredAt: time.Now()}
			if err := h.cache.Set(ctx, key, e); err != nil {
				h.logger.Error("writing response cache", "error", err, "url", req.URL.Redacted())
			}
		}

		return resp, nil
	})
}

// Upload streams file as the body of req and removes it once the attempt
// completes.
func (h *HTTP) Upload(ctx context.Context, req *http.Request, file *router.TempFile) *task.Task[*Response] {
	t := task.Run(ctx, nil, func(ctx context.Context) (*Response, error) {
		f, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening upload body: %w", err)
		}

		req := req.WithContext(ctx)
		req.ContentLength = file.Size()
		req.Body = &progressBody{
			progressReader: progressReader{r: f, progress: task.ProgressFrom(ctx), total: file.Size(), to: uploadShare},
			c:              f,
		}
		req.GetBody = func() (io.ReadCloser, error) { return file.Open() }

		return h.do(ctx, req, uploadShare)
	})

	return task.Finally(t, func() {
		if err := file.Remove(); err != nil {
			h.logger.Error("failed to remove upload body", "error", err, "path", file.Path())
		}
	})
}

// do sends req and reads the whole response body, reporting progress from
// start to completion.
func (h *HTTP) do(ctx context.Context, req *http.Request, start float64) (*Response, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exec http do: %w", err)
	}
	if resp == nil || resp.Body == nil {
		return nil, ErrMalformedResponse
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			h.logger.Error("failed to close response body", "error", err)
		}
	}()

	body := &progressReader{r: resp.Body, progress: task.ProgressFrom(ctx), total: resp.ContentLength, from: start, to: 1}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrMalformedResponse, err)
	}

	return &Response{Data: data, StatusCode: resp.StatusCode, Header: resp.Header}, nil
}
