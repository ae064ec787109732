// Package cache stores HTTP responses keyed by the request that produced
// them. [Memory] and [Disk] are bounded by size; [Tiered] layers one in
// front of another, and [Redis] shares responses between processes.
package cache

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNotFound is returned by Get when no entry is stored under the key.
var ErrNotFound = errors.New("cache entry not found")

// Entry is a stored response.
type Entry struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Data       []byte      `json:"data"`
	StoredAt   time.Time   `json:"stored_at"`
}

// Size approximates the bytes the entry occupies.
func (e *Entry) Size() int64 {
	n := int64(len(e.Data))
	for k, vs := range e.Header {
		n += int64(len(k))
		for _, v := range vs {
			n += int64(len(v))
		}
	}
	return n
}

// Cache is a response store. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, e *Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// NoOp stores nothing.
type NoOp struct{}

func (NoOp) Get(context.Context, string) (*Entry, error) { return nil, ErrNotFound }
func (NoOp) Set(context.Context, string, *Entry) error   { return nil }
func (NoOp) Delete(context.Context, string) error        { return nil }
func (NoOp) Clear(context.Context) error                 { return nil }
