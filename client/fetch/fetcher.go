// Package fetch dispatches wire requests built by the router and reports
// their raw responses through [task.Task] handles.
package fetch

import (
	"context"
	"errors"
	"net/http"

	"github.com/adamwoolhether/apiclient/client/router"
	"github.com/adamwoolhether/apiclient/client/task"
)

// ErrMalformedResponse indicates the transport produced no usable status
// and body.
var ErrMalformedResponse = errors.New("malformed response")

// Response is the outcome of one network round trip.
type Response struct {
	Data       []byte
	StatusCode int
	Header     http.Header
}

// CachePolicy controls how Fetch uses the response cache. Lookups always
// happen; Store additionally saves successful responses.
type CachePolicy struct {
	Store bool
}

// Fetcher sends requests. Fetch is used for requests carrying their own
// body; Upload streams a multipart body from file and removes file once the
// attempt is over, whatever its outcome.
type Fetcher interface {
	Fetch(ctx context.Context, req *http.Request, policy CachePolicy) *task.Task[*Response]
	Upload(ctx context.Context, req *http.Request, file *router.TempFile) *task.Task[*Response]
}
