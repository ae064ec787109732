package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/adamwoolhether/apiclient/client/endpoint"
)

// Router turns an Endpoint into a wire request for one Environment.
type Router struct {
	env       endpoint.Environment
	userAgent string
	store     *fileStore
}

// Option is a functional option for configuring a [Router] via [New].
type Option func(*options) error

type options struct {
	policy    UserAgentPolicy
	app       *AppInfo
	userAgent string
	cacheDir  string
}

// WithUserAgentPolicy selects how the User-Agent header is rendered.
// The default is Composed.
func WithUserAgentPolicy(p UserAgentPolicy) Option {
	return func(o *options) error {
		if p == nil {
			return errors.New("user agent policy must not be nil")
		}
		o.policy = p
		return nil
	}
}

// WithAppInfo overrides the application info fed to the policy.
func WithAppInfo(info AppInfo) Option {
	return func(o *options) error {
		o.app = &info
		return nil
	}
}

// WithUserAgent sets a literal User-Agent, bypassing the policy.
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		o.userAgent = ua
		return nil
	}
}

// WithCacheDir sets the directory under which multipart bodies are
// written. It defaults to the user cache directory.
func WithCacheDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.New("cache dir must not be empty")
		}
		o.cacheDir = dir
		return nil
	}
}

// New returns a Router for env.
func New(env endpoint.Environment, optFns ...Option) (*Router, error) {
	opts := options{policy: Composed}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying router option: %w", err)
		}
	}

	if opts.cacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		opts.cacheDir = dir
	}

	ua := opts.userAgent
	if ua == "" {
		app := DefaultAppInfo()
		if opts.app != nil {
			app = *opts.app
		}
		ua = opts.policy(app)
	}

	r := &Router{
		env:       env,
		userAgent: cleanUserAgent(ua),
		store:     newFileStore(opts.cacheDir),
	}

	return r, nil
}

// UserAgent returns the User-Agent header value set on every request.
func (r *Router) UserAgent() string { return r.userAgent }

// Build creates the wire request for ep. A non-nil TempFile holds a
// multipart body; the request then has no body of its own and the caller
// must stream the file and Remove it.
func (r *Router) Build(ctx context.Context, ep endpoint.Endpoint, sig *endpoint.Signature) (*http.Request, *TempFile, error) {
	u, err := url.Parse(r.env.RouteURL(ep.Path))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, nil, fmt.Errorf("%w: %q", ErrMalformedURL, r.env.RouteURL(ep.Path))
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method.String(), u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}

	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}
	if sig != nil && sig.Name != "" {
		req.Header.Set(sig.Name, sig.Value)
	}
	req.Header.Set("User-Agent", r.userAgent)

	switch ep.ParameterEncoding {
	case endpoint.URL:
		if len(ep.Parameters) == 0 {
			break
		}
		q := query(ep.Parameters)
		if req.URL.RawQuery != "" {
			q = req.URL.RawQuery + "&" + q
		}
		req.URL.RawQuery = q
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	case endpoint.JSON:
		var body any
		switch {
		case ep.EncodableParameters != nil:
			body = ep.EncodableParameters
		case len(ep.Parameters) > 0:
			body = ep.Parameters
		default:
			return req, nil, nil
		}

		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrEncodingRequestFailed, err)
		}
		setBody(req, b)
		req.Header.Set("Content-Type", "application/json")

	case endpoint.Multipart:
		tf, contentType, err := writeMultipart(r.store, ep.Parameters)
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = tf.Size()
		return req, tf, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown parameter encoding %d", ErrEncodingRequestFailed, ep.ParameterEncoding)
	}

	return req, nil, nil
}

func setBody(req *http.Request, b []byte) {
	req.ContentLength = int64(len(b))
	req.Body = io.NopCloser(bytes.NewReader(b))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
}
