package router

import (
	"strings"

	"github.com/adamwoolhether/apiclient/client/endpoint"
)

const upperhex = "0123456789ABCDEF"

// shouldEscape reports whether c is outside the query characters left
// unescaped: unreserved characters plus '/' and '?'.
func shouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}

	switch c {
	case '-', '.', '_', '~', '/', '?':
		return false
	}

	return true
}

// escape percent-encodes s byte-wise. Spaces become %20.
func escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !shouldEscape(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}

	return b.String()
}

// query serializes params as key=value pairs joined by '&'. Keys are sorted
// at every level.
func query(params endpoint.Params) string {
	var pairs []string
	for _, k := range params.Keys() {
		pairs = appendComponents(pairs, k, params[k])
	}

	return strings.Join(pairs, "&")
}

func appendComponents(pairs []string, key string, v endpoint.Value) []string {
	switch v := v.(type) {
	case endpoint.Params:
		for _, nested := range v.Keys() {
			pairs = appendComponents(pairs, key+"["+nested+"]", v[nested])
		}
		return pairs
	case endpoint.List:
		for _, e := range v {
			pairs = appendComponents(pairs, key+"[]", e)
		}
		return pairs
	case endpoint.TextPart:
		return append(pairs, escape(key)+"="+escape(string(v)))
	}

	s, ok := endpoint.Text(v)
	if !ok {
		// File parts have no query representation.
		return pairs
	}

	return append(pairs, escape(key)+"="+escape(s))
}
