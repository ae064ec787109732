package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// NoContent is the target type for responses without a body. Decoding
// into it never reads the payload.
type NoContent struct{}

// Option is a functional option for [JSON].
type Option func(*options)

type options struct {
	layout     string
	noValidate bool
}

// WithDateLayout decodes time.Time fields with layout, overriding any
// DateLayoutProvider.
func WithDateLayout(layout string) Option {
	return func(o *options) { o.layout = layout }
}

// WithoutValidation skips `validate` tag checks after decoding.
func WithoutValidation() Option {
	return func(o *options) { o.noValidate = true }
}

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

// JSON decodes data into a T. Failures are returned as *Error.
//
// Missing keys leave their fields at the zero value, as with encoding/json.
// A field that must be present is tagged `validate:"required"`; its absence
// then fails with ErrMalformedSchema.
func JSON[T any](data []byte, optFns ...Option) (T, error) {
	var v T
	if _, ok := any(v).(NoContent); ok {
		return v, nil
	}

	var opts options
	for _, opt := range optFns {
		opt(&opts)
	}

	t := reflect.TypeFor[T]()
	layout, custom := opts.layout, opts.layout != ""
	if !custom {
		layout, custom = layoutOf(t)
	}

	switch {
	case !custom || layout == DefaultDateLayout || reflect.PointerTo(t).Implements(unmarshalerType):
		if err := json.Unmarshal(data, &v); err != nil {
			return v, classify(err)
		}
	default:
		if err := decodeWithLayout(data, layout, &v); err != nil {
			return v, err
		}
	}

	if !opts.noValidate {
		if err := Validate(v); err != nil {
			return v, &Error{Kind: validationKind(err), Err: err}
		}
	}

	return v, nil
}

func validationKind(err error) error {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return ErrMalformedSchema
	}
	return ErrUnknown
}

// decodeWithLayout decodes through a generic JSON tree so that string
// timestamps can be converted with layout.
func decodeWithLayout(data []byte, layout string, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return classify(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return &Error{Kind: ErrMalformedJSON, Err: errors.New("invalid data after top-level value")}
	}

	md, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		Squash:     true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(unmarshalerHook, numberHook, mapstructure.StringToTimeHookFunc(layout)),
	})
	if err != nil {
		return &Error{Kind: ErrUnknown, Err: err}
	}

	if err := md.Decode(raw); err != nil {
		return &Error{Kind: ErrMalformedSchema, Err: err}
	}

	return nil
}

// numberHook gives JSON numbers the treatment encoding/json does: they
// are rejected by string and time fields and become float64 in untyped
// fields.
func numberHook(_, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok || to == reflect.TypeFor[json.Number]() {
		return data, nil
	}

	switch {
	case to.Kind() == reflect.String, to == timeType:
		return nil, &json.UnmarshalTypeError{Value: "number " + n.String(), Type: to}
	case to.Kind() == reflect.Interface:
		return n.Float64()
	}

	return data, nil
}

var timeType = reflect.TypeFor[time.Time]()

// unmarshalerHook hands values bound for a json.Unmarshaler, such as
// FailableArray or json.RawMessage, back to their own UnmarshalJSON.
// time.Time is left to the layout hook.
func unmarshalerHook(_, to reflect.Type, data any) (any, error) {
	if to == timeType || !reflect.PointerTo(to).Implements(unmarshalerType) {
		return data, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	v := reflect.New(to)
	if err := v.Interface().(json.Unmarshaler).UnmarshalJSON(b); err != nil {
		return nil, err
	}

	return v.Elem().Interface(), nil
}

func classify(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return &Error{Kind: ErrMalformedJSON, Err: err}
	case errors.As(err, &typeErr):
		return &Error{Kind: ErrMalformedSchema, Err: err}
	default:
		return &Error{Kind: ErrUnknown, Err: err}
	}
}
