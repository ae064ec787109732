package parse

import (
	"reflect"
	"time"
)

// DefaultDateLayout decodes timestamps such as 2024-05-01T10:00:00+02:00.
const DefaultDateLayout = "2006-01-02T15:04:05Z07:00"

// DateLayoutProvider is implemented by types whose time.Time fields use a
// layout other than DefaultDateLayout. Slices, arrays and pointers of a
// provider inherit its layout.
type DateLayoutProvider interface {
	DateLayout() string
}

// FormatDate renders t with layout, or DefaultDateLayout when empty.
func FormatDate(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Format(layout)
}

// ParseDate parses s with layout, or DefaultDateLayout when empty.
func ParseDate(s, layout string) (time.Time, error) {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return time.Parse(layout, s)
}

var providerType = reflect.TypeFor[DateLayoutProvider]()

// layoutOf returns the layout declared by t or by its element type, and
// false when neither is a DateLayoutProvider.
func layoutOf(t reflect.Type) (string, bool) {
	for {
		if reflect.PointerTo(t).Implements(providerType) {
			return reflect.New(t).Interface().(DateLayoutProvider).DateLayout(), true
		}

		switch t.Kind() {
		case reflect.Slice, reflect.Array, reflect.Pointer:
			t = t.Elem()
		default:
			return "", false
		}
	}
}
