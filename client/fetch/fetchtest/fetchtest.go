// Package fetchtest provides a scripted [fetch.Fetcher] for tests.
package fetchtest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/adamwoolhether/apiclient/client/fetch"
	"github.com/adamwoolhether/apiclient/client/router"
	"github.com/adamwoolhether/apiclient/client/task"
)

// Responder produces the response for one captured request.
type Responder func(req *http.Request) (*fetch.Response, error)

// Respond returns a Responder answering every request with status and body.
func Respond(status int, body string) Responder {
	return func(*http.Request) (*fetch.Response, error) {
		return &fetch.Response{
			Data:       []byte(body),
			StatusCode: status,
			Header:     http.Header{"Content-Type": {"application/json"}},
		}, nil
	}
}

// Fail returns a Responder failing every request with err.
func Fail(err error) Responder {
	return func(*http.Request) (*fetch.Response, error) { return nil, err }
}

// Sequence answers the nth request with the nth Responder and repeats the
// last one once exhausted.
func Sequence(rs ...Responder) Responder {
	var (
		mu sync.Mutex
		n  int
	)

	return func(req *http.Request) (*fetch.Response, error) {
		mu.Lock()
		r := rs[min(n, len(rs)-1)]
		n++
		mu.Unlock()

		return r(req)
	}
}

// Call is a captured request.
type Call struct {
	Request *http.Request
	Body    []byte
	Policy  fetch.CachePolicy
	// Upload reports whether the request came through Upload, and
	// FileExisted whether its body file was present when it was sent.
	Upload      bool
	FileExisted bool
}

// Fetcher records requests and answers them with its Responder. It
// removes upload files the way a real fetcher does.
type Fetcher struct {
	respond Responder

	mu    sync.Mutex
	calls []Call
}

// New returns a Fetcher answering with r.
func New(r Responder) *Fetcher {
	return &Fetcher{respond: r}
}

func (f *Fetcher) Fetch(ctx context.Context, req *http.Request, policy fetch.CachePolicy) *task.Task[*fetch.Response] {
	return task.Run(ctx, nil, func(ctx context.Context) (*fetch.Response, error) {
		call := Call{Request: req.WithContext(ctx), Policy: policy}
		if req.Body != nil {
			b, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			call.Body = b
		}

		return f.record(ctx, call)
	})
}

func (f *Fetcher) Upload(ctx context.Context, req *http.Request, file *router.TempFile) *task.Task[*fetch.Response] {
	t := task.Run(ctx, nil, func(ctx context.Context) (*fetch.Response, error) {
		call := Call{Request: req.WithContext(ctx), Upload: true}

		b, err := os.ReadFile(file.Path())
		switch {
		case err == nil:
			call.Body = b
			call.FileExisted = true
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}

		return f.record(ctx, call)
	})

	return task.Finally(t, func() { _ = file.Remove() })
}

func (f *Fetcher) record(ctx context.Context, call Call) (*fetch.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return f.respond(call.Request)
}

// Calls returns the captured requests in dispatch order.
func (f *Fetcher) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Call(nil), f.calls...)
}
