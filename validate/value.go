package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// maxIndirections bounds pointer chasing in Normalize.
const maxIndirections = 32

// Normalize converts one level of a Go value into the canonical shapes:
// nil, bool, string, int64, float64, []byte, []any or map[string]any.
// Elements of slices and maps are left as they are. ok is false for values
// that have no JSON-like shape (structs, channels, functions, ...).
func Normalize(v any) (out any, ok bool) {
	for range maxIndirections {
		switch x := v.(type) {
		case nil, bool, string, int64, float64, []byte, []any, map[string]any:
			return x, true
		case int:
			return int64(x), true
		case int8:
			return int64(x), true
		case int16:
			return int64(x), true
		case int32:
			return int64(x), true
		case uint:
			return uintValue(uint64(x)), true
		case uint8:
			return int64(x), true
		case uint16:
			return int64(x), true
		case uint32:
			return int64(x), true
		case uint64:
			return uintValue(x), true
		case float32:
			return float64(x), true
		case json.Number:
			if i, err := x.Int64(); err == nil {
				return i, true
			}
			if f, err := x.Float64(); err == nil {
				return f, true
			}
			return string(x), false
		case []string:
			out := make([]any, len(x))
			for i, s := range x {
				out[i] = s
			}
			return out, true
		case map[string]string:
			out := make(map[string]any, len(x))
			for k, s := range x {
				out[k] = s
			}
			return out, true
		}

		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Pointer, reflect.Interface:
			if rv.IsNil() {
				return nil, true
			}
			v = rv.Elem().Interface()
			continue
		case reflect.Bool:
			return rv.Bool(), true
		case reflect.String:
			return rv.String(), true
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return uintValue(rv.Uint()), true
		case reflect.Float32, reflect.Float64:
			return rv.Float(), true
		case reflect.Slice:
			if rv.IsNil() {
				return nil, true
			}
			if rv.Type().Elem().Kind() == reflect.Uint8 {
				return rv.Bytes(), true
			}
			return sliceValue(rv), true
		case reflect.Array:
			return sliceValue(rv), true
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return v, false
			}
			if rv.IsNil() {
				return nil, true
			}
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = iter.Value().Interface()
			}
			return out, true
		default:
			return v, false
		}
	}
	return v, false
}

func uintValue(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func sliceValue(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// Canonical renders a value as canonical JSON (sorted keys, normalized
// numbers) for equality checks. Values that cannot be marshaled render with
// their Go syntax.
func Canonical(v any) string {
	data, err := json.Marshal(canonicalValue(v, 0))
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}

const maxCanonicalDepth = 256

func canonicalValue(v any, depth int) any {
	if depth > maxCanonicalDepth {
		return nil
	}
	n, ok := Normalize(v)
	if !ok {
		return v
	}
	switch x := n.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = canonicalValue(item, depth+1)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = canonicalValue(item, depth+1)
		}
		return out
	}
	return n
}

// Equal reports whether two values are equal after normalization.
func Equal(a, b any) bool {
	return Canonical(a) == Canonical(b)
}

// Clone deep-copies slices and maps so that schema defaults handed out to
// callers cannot be mutated through the result.
func Clone(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Clone(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Clone(item)
		}
		return out
	}
	return v
}
