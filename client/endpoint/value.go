package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
)

// ErrNotJSONEncodable is returned when marshaling a multipart part as JSON.
var ErrNotJSONEncodable = errors.New("multipart part cannot be encoded as json")

// Value is a parameter value. It is one of String, Int, Float, Bool, Null,
// Params, List or a multipart Part.
type Value interface {
	value()
}

type (
	String string
	Int    int64
	Float  float64
	Bool   bool
	// Null is an explicit absence, encoded as an empty query value or as
	// JSON null.
	Null struct{}
	// Params is a string-keyed mapping of values.
	Params map[string]Value
	// List is an ordered sequence of values.
	List []Value
)

func (String) value() {}
func (Int) value()    {}
func (Float) value()  {}
func (Bool) value()   {}
func (Null) value()   {}
func (Params) value() {}
func (List) value()   {}

func (n Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Keys returns the keys of p in sorted order.
func (p Params) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Text renders a scalar value the way it appears in a query string.
// Booleans render as 1 and 0. Params, List and parts report false.
func Text(v Value) (string, bool) {
	switch v := v.(type) {
	case String:
		return string(v), true
	case Int:
		return strconv.FormatInt(int64(v), 10), true
	case Float:
		return strconv.FormatFloat(float64(v), 'f', -1, 64), true
	case Bool:
		if v {
			return "1", true
		}
		return "0", true
	case Null:
		return "", true
	default:
		return "", false
	}
}

// Of converts a Go value into a Value. Maps with string keys become Params
// and slices or arrays become List. Values that already implement Value
// are returned unchanged, and any other type is rendered with fmt.
func Of(v any) Value {
	switch v := v.(type) {
	case nil:
		return Null{}
	case Value:
		return v
	case string:
		return String(v)
	case bool:
		return Bool(v)
	case int:
		return Int(v)
	case int8:
		return Int(v)
	case int16:
		return Int(v)
	case int32:
		return Int(v)
	case int64:
		return Int(v)
	case uint:
		return Int(v)
	case uint8:
		return Int(v)
	case uint16:
		return Int(v)
	case uint32:
		return Int(v)
	case float32:
		return Float(v)
	case float64:
		return Float(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i)
		}
		if f, err := v.Float64(); err == nil {
			return Float(f)
		}
		return String(v)
	case map[string]any:
		p := make(Params, len(v))
		for k, e := range v {
			p[k] = Of(e)
		}
		return p
	case []any:
		l := make(List, 0, len(v))
		for _, e := range v {
			l = append(l, Of(e))
		}
		return l
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		p := make(Params, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			p[iter.Key().String()] = Of(iter.Value().Interface())
		}
		return p
	case reflect.Slice, reflect.Array:
		l := make(List, 0, rv.Len())
		for i := range rv.Len() {
			l = append(l, Of(rv.Index(i).Interface()))
		}
		return l
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}
		}
		return Of(rv.Elem().Interface())
	}

	return String(fmt.Sprint(v))
}

// ParamsOf converts a map of Go values with Of.
func ParamsOf(m map[string]any) Params {
	p := make(Params, len(m))
	for k, v := range m {
		p[k] = Of(v)
	}
	return p
}
