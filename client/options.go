package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/apiclient/client/cache"
	"github.com/adamwoolhether/apiclient/client/endpoint"
	"github.com/adamwoolhether/apiclient/client/fetch"
	"github.com/adamwoolhether/apiclient/client/router"
	"github.com/adamwoolhether/apiclient/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	throttle          *throttle.Config
	retries           int
	noFollowRedirects bool

	fetcher    fetch.Fetcher
	cache      cache.Cache
	closers    []func() error
	routerOpts []router.Option

	logger    *slog.Logger
	logging   LoggingConfig
	tracer    trace.Tracer
	delegate  Delegate
	signature *endpoint.Signature
	customize RequestCustomizer
	mapErr    ErrorMapper
}

// WithClient replaces the default [http.Client] used by the [Client].
// The Client works on a copy of hc.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithTransportRetries retries requests up to n times when the connection
// fails before any response arrives. Responses, whatever their status, are
// never retried at this level.
func WithTransportRetries(n int) Option {
	return func(c *options) error {
		if n < 0 {
			return errors.New("retries must not be negative")
		}
		c.retries = n
		return nil
	}
}

// WithUserAgent sets a literal User-Agent header, replacing the one derived
// from the running application.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.routerOpts = append(c.routerOpts, router.WithUserAgent(header))
		return nil
	}
}

// WithUserAgentPolicy selects how the User-Agent header is derived from the
// running application.
func WithUserAgentPolicy(p router.UserAgentPolicy) Option {
	return func(c *options) error {
		c.routerOpts = append(c.routerOpts, router.WithUserAgentPolicy(p))
		return nil
	}
}

// WithCacheDir sets the directory under which multipart bodies are staged.
func WithCacheDir(dir string) Option {
	return func(c *options) error {
		c.routerOpts = append(c.routerOpts, router.WithCacheDir(dir))
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithLogging sets which requests and responses are logged.
func WithLogging(cfg LoggingConfig) Option {
	return func(c *options) error {
		c.logging = cfg
		return nil
	}
}

// WithTracer records a span for every performed request.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithFetcher replaces the network layer. Transport related options are
// ignored when a Fetcher is given.
func WithFetcher(f fetch.Fetcher) Option {
	return func(c *options) error {
		if f == nil {
			return errors.New("fetcher must not be nil")
		}
		c.fetcher = f
		return nil
	}
}

// WithDelegate attaches the Delegate consulted on unauthorized responses.
func WithDelegate(d Delegate) Option {
	return func(c *options) error {
		if d == nil {
			return errors.New("delegate must not be nil")
		}
		c.delegate = d
		return nil
	}
}

// WithSignature sets the initial credential header.
func WithSignature(sig endpoint.Signature) Option {
	return func(c *options) error {
		if sig.Name == "" {
			return errors.New("signature name must not be empty")
		}
		c.signature = &sig
		return nil
	}
}

// WithCache sets the store for responses of endpoints with CacheResponse
// set. It defaults to an in-memory LRU.
func WithCache(store cache.Cache) Option {
	return func(c *options) error {
		if store == nil {
			return errors.New("cache must not be nil")
		}
		c.cache = store
		return nil
	}
}

// WithDiskCache keeps cached responses in a SQLite database at path,
// bounded to capacity bytes, behind the default in-memory LRU. The database
// is closed by [Client.Close].
func WithDiskCache(path string, capacity int64) Option {
	return func(c *options) error {
		d, err := cache.OpenDisk(path, capacity)
		if err != nil {
			return err
		}
		c.cache = cache.Tiered{Front: cache.NewMemory(0), Back: d}
		c.closers = append(c.closers, d.Close)
		return nil
	}
}

// WithRequestCustomizer installs fn to alter every request before dispatch.
func WithRequestCustomizer(fn RequestCustomizer) Option {
	return func(c *options) error {
		if fn == nil {
			return errors.New("customizer must not be nil")
		}
		c.customize = fn
		return nil
	}
}

// WithErrorMapper installs fn to transform failures before they are
// surfaced. A mapper must keep the error chain intact (by wrapping) for
// the unauthorized retry to still recognise a 401.
func WithErrorMapper(fn ErrorMapper) Option {
	return func(c *options) error {
		if fn == nil {
			return errors.New("error mapper must not be nil")
		}
		c.mapErr = fn
		return nil
	}
}
