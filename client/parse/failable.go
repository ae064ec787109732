package parse

import (
	"encoding/json"
	"log/slog"
)

// FailableArray decodes a JSON array, keeping only the elements that
// decode into E. Dropped elements are logged at debug level.
type FailableArray[E any] struct {
	Elements []E
}

func (fa *FailableArray[E]) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	fa.Elements = make([]E, 0, len(raws))
	for i, raw := range raws {
		e, err := JSON[E](raw)
		if err != nil {
			slog.Debug("dropping undecodable array element", "index", i, "error", err)
			continue
		}
		fa.Elements = append(fa.Elements, e)
	}

	return nil
}

func (fa FailableArray[E]) MarshalJSON() ([]byte, error) {
	if fa.Elements == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(fa.Elements)
}
