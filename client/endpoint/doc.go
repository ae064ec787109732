// Package endpoint holds the declarative description of an API call: the
// [Endpoint] itself, its parameter [Value]s and multipart [Part]s, the
// [Environment] it is routed against, and the [Signature] header used to
// authenticate it.
package endpoint
