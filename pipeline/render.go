package pipeline

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/erraggy/oasbind/schema"
	"github.com/erraggy/oasbind/validate"
)

const (
	maxWireDepth = 64
	dateLayout   = "2006-01-02"
)

// toWire turns typed Go values into the plain values the validator
// understands. time.Time renders as RFC 3339 (or a date for format date),
// uuid.UUID as its string, []byte as base64 for format byte, and structs
// through their JSON encoding.
func toWire(v any, s *schema.Schema) (any, error) {
	return wireValue(v, s, 0)
}

func wireValue(v any, s *schema.Schema, depth int) (any, error) {
	if depth > maxWireDepth {
		return nil, fmt.Errorf("value nested deeper than %d levels", maxWireDepth)
	}
	if v == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}

	switch x := v.(type) {
	case time.Time:
		if s != nil && s.Format == "date" {
			return x.Format(dateLayout), nil
		}
		return x.Format(time.RFC3339Nano), nil
	case uuid.UUID:
		return x.String(), nil
	case []byte:
		if s != nil && s.Format == "byte" {
			return base64.StdEncoding.EncodeToString(x), nil
		}
		return x, nil
	case json.Marshaler:
		data, err := x.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return fromJSON(data, s, depth)
	case encoding.TextMarshaler:
		text, err := x.MarshalText()
		if err != nil {
			return nil, err
		}
		return string(text), nil
	}

	n, ok := validate.Normalize(v)
	if !ok {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("cannot render %T: %w", v, err)
		}
		return fromJSON(data, s, depth)
	}

	switch x := n.(type) {
	case []any:
		items := s.ItemSchema()
		out := make([]any, len(x))
		for i, item := range x {
			w, err := wireValue(item, items, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			w, err := wireValue(item, s.PropertySchema(k), depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = w
		}
		return out, nil
	}
	return n, nil
}

func fromJSON(data []byte, s *schema.Schema, depth int) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return wireValue(out, s, depth+1)
}
