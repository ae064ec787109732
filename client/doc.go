// Package client executes declarative API calls against a remote server.
//
// # Building a Client
//
// Use [Build] with the [Environment] to talk to and functional options:
//
//	c, err := client.Build(
//		client.Environment{BaseURL: "https://api.example.com"},
//		client.WithTimeout(10 * time.Second),
//		client.WithDelegate(delegate),
//	)
//
// # Performing Requests
//
// A [Request] pairs an [Endpoint] with the type its response decodes into.
// [Perform] returns a [task.Task] that can be awaited, canceled or chained:
//
//	req := client.NewRequest[User](client.Endpoint{Path: "/me"})
//	user, err := client.Perform(ctx, c, req).Result()
//
// Responses outside [200, 300) fail with a *[StatusError]. A 401 is retried
// once after the [Delegate] re-authorizes; see [WithoutUnauthorizedRetry].
//
// # Uploads
//
// Endpoints with [endpoint.Multipart] encoding are staged in a temporary
// file under the cache directory and streamed from there. The file is
// removed once the request is over, whatever its outcome.
//
// For lower-level control see the router, fetch and parse packages.
package client
