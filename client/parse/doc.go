// Package parse decodes response bodies into typed values.
//
// [JSON] is the entry point. Decoding into [NoContent] succeeds without
// looking at the payload. Every other failure is an [*Error] whose Kind is
// [ErrMalformedJSON] for payloads that are not JSON, [ErrMalformedSchema]
// for JSON that does not fit the target type or fails its `validate` tags,
// and [ErrUnknown] otherwise.
//
// Timestamps are decoded with [DefaultDateLayout] unless the target type
// implements [DateLayoutProvider]:
//
//	type Event struct {
//		At time.Time `json:"at"`
//	}
//
//	func (Event) DateLayout() string { return "2006-01-02" }
//
//	events, err := parse.JSON[[]Event](data)
package parse
