package parse

import (
	"bytes"
	"encoding/json"

	"github.com/itchyny/gojq"
)

// errorQuery extracts a string "error" member from an object whose
// members are all strings.
var errorQuery = mustCompile(`select(type == "object" and ([.[] | select(type != "string")] | length) == 0) | .error | strings`)

func mustCompile(expression string) *gojq.Code {
	query, err := gojq.Parse(expression)
	if err != nil {
		panic(err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		panic(err)
	}

	return code
}

// PrettyPrint indents a JSON payload. It reports false when data is not
// JSON.
func PrettyPrint(data []byte) (string, bool) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return "", false
	}
	return buf.String(), true
}

// ErrorMessage returns the "error" member of a JSON object of strings,
// such as {"error":"token expired"}.
func ErrorMessage(data []byte) (string, bool) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", false
	}

	iter := errorQuery.Run(v)
	for {
		result, ok := iter.Next()
		if !ok {
			return "", false
		}
		if _, isErr := result.(error); isErr {
			return "", false
		}
		if s, ok := result.(string); ok {
			return s, true
		}
	}
}

// IsNull reports whether data is the JSON literal null.
func IsNull(data []byte) bool {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return false
	}
	return v == nil
}
