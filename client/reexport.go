package client

import (
	"github.com/adamwoolhether/apiclient/client/endpoint"
	"github.com/adamwoolhether/apiclient/client/fetch"
	"github.com/adamwoolhether/apiclient/client/parse"
	"github.com/adamwoolhether/apiclient/client/router"
	"github.com/adamwoolhether/apiclient/client/task"
)

// ————————————————————————————————————————————————————————————————————
// Type aliases – re-export user-facing types from sub-packages.
// ————————————————————————————————————————————————————————————————————

type (
	// Response is the raw outcome of one round trip.
	Response = fetch.Response

	// Endpoint describes one API call.
	Endpoint = endpoint.Endpoint

	// Environment is the server a Client talks to.
	Environment = endpoint.Environment

	// Signature is a credential header attached to every request.
	Signature = endpoint.Signature

	// MultipartError describes why a multipart body could not be encoded.
	MultipartError = router.MultipartError

	// NoContent is the result type of requests whose body is ignored.
	NoContent = parse.NoContent
)

// ————————————————————————————————————————————————————————————————————
// Sentinel errors
// ————————————————————————————————————————————————————————————————————

var (
	// ErrMalformedURL indicates the environment and path do not form an absolute URL.
	ErrMalformedURL = router.ErrMalformedURL

	// ErrMalformedParameters indicates parameters unfit for the chosen encoding.
	ErrMalformedParameters = router.ErrMalformedParameters

	// ErrEncodingRequestFailed indicates the request body could not be serialized.
	ErrEncodingRequestFailed = router.ErrEncodingRequestFailed

	// ErrMultipartEncodingFailed indicates a multipart body could not be written.
	ErrMultipartEncodingFailed = router.ErrMultipartEncodingFailed

	// ErrMalformedResponse indicates the transport yielded no usable status and body.
	ErrMalformedResponse = fetch.ErrMalformedResponse

	// ErrRequestCanceled indicates the request was canceled before it completed.
	ErrRequestCanceled = task.ErrCanceled

	// ErrMalformedJSON indicates a response body that is not valid JSON.
	ErrMalformedJSON = parse.ErrMalformedJSON

	// ErrMalformedSchema indicates a body that does not fit the result type.
	ErrMalformedSchema = parse.ErrMalformedSchema

	// ErrUnknown covers decoding failures of no other kind.
	ErrUnknown = parse.ErrUnknown
)
