package client

import (
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/adamwoolhether/apiclient/client/cache"
	"github.com/adamwoolhether/apiclient/client/endpoint"
	"github.com/adamwoolhether/apiclient/client/fetch/fetchtest"
)

func TestBuild_ReleasesDiskCache(t *testing.T) {
	testCases := []struct {
		name     string
		opts     []Option
		buildErr bool
	}{
		{
			name:     "later option fails",
			opts:     []Option{func(*options) error { return errors.New("bad option") }},
			buildErr: true,
		},
		{
			name: "custom fetcher",
			opts: []Option{WithFetcher(fetchtest.New(fetchtest.Respond(http.StatusOK, `{}`)))},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var captured *options
			capture := func(o *options) error {
				captured = o
				return nil
			}

			opts := append([]Option{WithDiskCache(filepath.Join(t.TempDir(), "cache.db"), 0), capture}, tc.opts...)
			c, err := Build(endpoint.Environment{BaseURL: "https://api.example.test"}, opts...)

			switch {
			case tc.buildErr:
				if err == nil {
					t.Fatal("exp build error")
				}
			case err != nil:
				t.Fatalf("build: %v", err)
			default:
				if err := c.Close(); err != nil {
					t.Fatalf("close: %v", err)
				}
			}

			tiered, ok := captured.cache.(cache.Tiered)
			if !ok {
				t.Fatalf("exp tiered cache; got %T", captured.cache)
			}
			_, err = tiered.Back.Get(t.Context(), "missing")
			if err == nil || errors.Is(err, cache.ErrNotFound) {
				t.Errorf("exp closed disk cache; got %v", err)
			}
		})
	}
}
