package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/adamwoolhether/apiclient/client/cache"
	"github.com/adamwoolhether/apiclient/client/endpoint"
	"github.com/adamwoolhether/apiclient/client/fetch"
	"github.com/adamwoolhether/apiclient/client/router"
	"github.com/adamwoolhether/apiclient/client/task"
	"github.com/adamwoolhether/apiclient/client/throttle"
)

// Client performs Requests against one Environment.
//
// Building, decoding and the unauthorized retry run on a worker queue shared
// by every request of the Client; per-request validators and delegate
// notifications run on a separate callback queue. Both are serial.
type Client struct {
	env       endpoint.Environment
	router    *router.Router
	fetcher   fetch.Fetcher
	delegate  Delegate
	signature atomic.Pointer[endpoint.Signature]

	worker    *task.Queue
	callbacks *task.Queue

	logger    *slog.Logger
	logging   LoggingConfig
	tracer    trace.Tracer
	customize RequestCustomizer
	mapErr    ErrorMapper

	reauth  singleflight.Group
	closers []func() error
}

// RequestCustomizer may alter a request after it is built and before it is
// dispatched.
type RequestCustomizer func(*http.Request) (*http.Request, error)

// ErrorMapper transforms a failed attempt's error before it is surfaced.
type ErrorMapper func(error) error

// Build constructs a Client for env.
//
// Resources opened by options are released when Build fails, and by
// [Client.Close] otherwise.
func Build(env endpoint.Environment, optFns ...Option) (_ *Client, err error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("validating environment: %w", err)
	}

	opts := options{
		logging: DefaultLogging,
	}
	defer func() {
		if err != nil {
			for _, fn := range opts.closers {
				_ = fn()
			}
		}
	}()

	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	c := &Client{
		env:       env,
		delegate:  NopDelegate{},
		logger:    slog.Default(),
		logging:   opts.logging,
		tracer:    noop.NewTracerProvider().Tracer(""),
		customize: opts.customize,
		mapErr:    opts.mapErr,
	}

	if opts.logger != nil {
		c.logger = opts.logger
	}
	if opts.tracer != nil {
		c.tracer = opts.tracer
	}
	if opts.delegate != nil {
		c.delegate = opts.delegate
	}
	if opts.signature != nil {
		sig := *opts.signature
		c.signature.Store(&sig)
	}

	r, err := router.New(env, opts.routerOpts...)
	if err != nil {
		return nil, fmt.Errorf("configuring router: %w", err)
	}
	c.router = r

	switch {
	case opts.fetcher != nil:
		c.fetcher = opts.fetcher
	default:
		hc, err := c.httpClient(&opts)
		if err != nil {
			return nil, err
		}

		store := opts.cache
		if store == nil {
			store = cache.NewMemory(0)
		}
		f, err := fetch.NewHTTP(hc, fetch.WithCache(store), fetch.WithLogger(c.logger))
		if err != nil {
			return nil, fmt.Errorf("configuring fetcher: %w", err)
		}
		c.fetcher = f
	}

	c.closers = opts.closers
	c.worker = task.NewQueue()
	c.callbacks = task.NewQueue()

	return c, nil
}

// httpClient assembles the *http.Client and its transport chain from opts.
func (c *Client) httpClient(opts *options) (*http.Client, error) {
	hc := &http.Client{}
	if opts.client != nil {
		copied := *opts.client
		hc = &copied
	}

	if opts.timeout != nil {
		hc.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		dt := http.DefaultTransport.(*http.Transport).Clone()
		if c.env.AllowInsecureConnections {
			dt.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		}
		transport = dt
	}

	if opts.retries > 0 {
		transport = fetch.RetryTransport(transport, opts.retries, c.logger)
	}

	if opts.throttle != nil {
		rt, err := throttle.New(*opts.throttle, func() *slog.Logger { return c.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	hc.Transport = transport

	return hc, nil
}

// Environment returns the Environment the Client targets.
func (c *Client) Environment() endpoint.Environment { return c.env }

// UserAgent returns the User-Agent header sent with every request.
func (c *Client) UserAgent() string { return c.router.UserAgent() }

// Signature returns the current credential header, or nil.
func (c *Client) Signature() *endpoint.Signature {
	sig := c.signature.Load()
	if sig == nil {
		return nil
	}

	cpy := *sig
	return &cpy
}

// SetSignature replaces the credential header attached to requests built
// from now on.
func (c *Client) SetSignature(sig endpoint.Signature) {
	c.signature.Store(&sig)
}

// RemoveSignature stops attaching a credential header.
func (c *Client) RemoveSignature() {
	c.signature.Store(nil)
}

// Close stops the Client's queues and releases what its options opened,
// such as a disk cache. Requests still waiting on them fail with
// task.ErrQueueShutdown.
func (c *Client) Close() error {
	c.worker.Close()
	c.callbacks.Close()

	var err error
	for _, fn := range c.closers {
		if cerr := fn(); cerr != nil && err == nil {
			err = fmt.Errorf("closing client: %w", cerr)
		}
	}

	return err
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, d)
}
