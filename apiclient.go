// Package apiclient exposes the client builder.
package apiclient

import (
	"github.com/adamwoolhether/apiclient/client"
)

// NewClient instantiates a new *Client for env with the provided options.
// If not specified, a clone of http.DefaultTransport and an in-memory
// response cache are used.
func NewClient(env client.Environment, opts ...client.Option) (*client.Client, error) {
	return client.Build(env, opts...)
}
