package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
)

// Key identifies req in the response cache. It covers the method, the
// full URL, every header in sorted order and a digest of the body.
// Headers written by the global trace propagator differ per call and are
// left out.
func Key(req *http.Request) (string, error) {
	h := sha256.New()

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return "", fmt.Errorf("reading body for cache key: %w", err)
		}
		_, err = io.Copy(h, body)
		body.Close()
		if err != nil {
			return "", fmt.Errorf("hashing body for cache key: %w", err)
		}
	}

	var b strings.Builder
	b.WriteString(req.Method)
	b.WriteByte(' ')
	b.WriteString(req.URL.String())
	skip := make(map[string]bool)
	for _, f := range otel.GetTextMapPropagator().Fields() {
		skip[http.CanonicalHeaderKey(f)] = true
	}
	for _, k := range slices.Sorted(maps.Keys(req.Header)) {
		if skip[http.CanonicalHeaderKey(k)] {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(strings.Join(req.Header[k], ","))
	}
	b.WriteByte('\n')
	b.WriteString(hex.EncodeToString(h.Sum(nil)))

	return b.String(), nil
}
