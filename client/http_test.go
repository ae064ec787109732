package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/apiclient/client"
	"github.com/adamwoolhether/apiclient/client/endpoint"
)

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ip", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ip{Origin: "203.0.113.7"})
	})
	mux.HandleFunc("GET /echo", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"query": r.URL.RawQuery, "ua": r.UserAgent()})
	})
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"title": r.FormValue("title")})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newHTTPClient(t *testing.T, srv *httptest.Server, opts ...client.Option) *client.Client {
	t.Helper()

	opts = append([]client.Option{client.WithClient(srv.Client()), client.WithCacheDir(t.TempDir())}, opts...)

	c, err := client.Build(client.Environment{BaseURL: srv.URL}, opts...)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestHTTP_GetIP(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	c := newHTTPClient(t, srv)

	got, err := client.Perform(t.Context(), c, client.NewRequest[ip](client.Endpoint{Path: "/ip", Method: endpoint.GET})).Result()
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if got.Origin != "203.0.113.7" {
		t.Errorf("exp origin; got %q", got.Origin)
	}
}

func TestHTTP_QueryAndUserAgent(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	c := newHTTPClient(t, srv, client.WithUserAgent("tester/2.0"))

	ep := client.Endpoint{
		Path:       "/echo",
		Parameters: endpoint.Params{"b": endpoint.Bool(false), "a": endpoint.String("x y")},
	}

	got, err := client.Perform(t.Context(), c, client.NewRequest[map[string]string](ep)).Result()
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if got["query"] != "a=x%20y&b=0" {
		t.Errorf("exp sorted encoded query; got %q", got["query"])
	}
	if got["ua"] != "tester/2.0" {
		t.Errorf("exp user agent; got %q", got["ua"])
	}
}

func TestHTTP_CachesResponses(t *testing.T) {
	testCases := []struct {
		name    string
		opts    func(t *testing.T) []client.Option
		cache   bool
		expHits int32
	}{
		{
			name:    "not cached",
			opts:    func(*testing.T) []client.Option { return nil },
			expHits: 2,
		},
		{
			name:    "memory",
			opts:    func(*testing.T) []client.Option { return nil },
			cache:   true,
			expHits: 1,
		},
		{
			name: "disk",
			opts: func(t *testing.T) []client.Option {
				return []client.Option{client.WithDiskCache(filepath.Join(t.TempDir(), "cache.db"), 0)}
			},
			cache:   true,
			expHits: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := newServer(t, &hits)
			c := newHTTPClient(t, srv, tc.opts(t)...)

			ep := client.Endpoint{Path: "/ip", CacheResponse: tc.cache}
			for range 2 {
				got, err := client.Perform(t.Context(), c, client.NewRequest[ip](ep)).Result()
				if err != nil {
					t.Fatalf("perform: %v", err)
				}
				if got.Origin != "203.0.113.7" {
					t.Errorf("exp origin; got %q", got.Origin)
				}
			}

			if n := hits.Load(); n != tc.expHits {
				t.Errorf("exp %d server hits; got %d", tc.expHits, n)
			}
		})
	}
}

// parentTracer starts no spans of its own, so the caller's span context is
// what gets propagated.
type parentTracer struct{ noop.Tracer }

func (parentTracer) Start(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

func TestHTTP_CachesAcrossTraces(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var (
		hits    atomic.Int32
		parents = make(chan string, 2)
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ip", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		parents <- r.Header.Get("Traceparent")
		_ = json.NewEncoder(w).Encode(ip{Origin: "203.0.113.7"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newHTTPClient(t, srv, client.WithTracer(parentTracer{}))

	traced := func(traceID trace.TraceID, spanID trace.SpanID) context.Context {
		return trace.ContextWithSpanContext(t.Context(), trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		}))
	}
	ctxs := []context.Context{
		traced(trace.TraceID{1}, trace.SpanID{1}),
		traced(trace.TraceID{2}, trace.SpanID{2}),
	}

	ep := client.Endpoint{Path: "/ip", CacheResponse: true}
	for _, ctx := range ctxs {
		if _, err := client.Perform(ctx, c, client.NewRequest[ip](ep)).Result(); err != nil {
			t.Fatalf("perform: %v", err)
		}
	}

	if n := hits.Load(); n != 1 {
		t.Errorf("exp 1 server hit; got %d", n)
	}
	if tp := <-parents; tp == "" {
		t.Error("exp trace context sent to the server")
	}
}

func TestHTTP_Upload(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	c := newHTTPClient(t, srv)

	ep := client.Endpoint{
		Path:   "/upload",
		Method: endpoint.POST,
		Parameters: endpoint.Params{
			"title": endpoint.TextPart("holiday"),
			"photo": endpoint.DataPart{Data: []byte("jpeg-bytes"), FileName: "p.jpg", MimeType: endpoint.ImageJPEG},
		},
		ParameterEncoding: endpoint.Multipart,
	}

	tk := client.Perform(t.Context(), c, client.NewRequest[map[string]string](ep))
	got, err := tk.Result()
	if err != nil {
		t.Fatalf("perform: %v", err)
	}
	if got["title"] != "holiday" {
		t.Errorf("exp server to parse the form; got %v", got)
	}
	if p := tk.Progress(); p != 1 {
		t.Errorf("exp complete progress; got %v", p)
	}
}

func TestHTTP_ThrottledWithRetries(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	c := newHTTPClient(t, srv, client.WithThrottle(100, 1), client.WithTransportRetries(2))

	for range 3 {
		if err := client.Perform(t.Context(), c, client.NewRequest[ip](client.Endpoint{Path: "/ip"})).Err(); err != nil {
			t.Fatalf("perform: %v", err)
		}
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("exp 3 hits; got %d", n)
	}
}

func TestHTTP_NotFound(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	c := newHTTPClient(t, srv)

	err := client.Perform(t.Context(), c, client.NewRequest[ip](client.Endpoint{Path: "/missing"})).Err()
	if err == nil {
		t.Fatal("exp error")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("exp 404 status error; got %v", err)
	}
}
