// Package validate checks values against compiled schemas and converts them
// to their canonical Go representation.
//
// Validation is total: it never panics for any Go value and never stops at
// the first problem. Every violation is returned as a [ValidationError]
// located by a path of property names and array indices.
//
// Values are expected in the shapes produced by encoding/json with
// UseNumber: nil, bool, string, json.Number, []any and map[string]any. Other
// integer and float types, typed slices, string-keyed maps and pointers are
// accepted as well. [Convert] returns the value with numbers normalized to
// int64 (integer schemas) or float64 (number schemas), and, in the request
// direction, with defaults filled in for absent properties.
//
// # Directions
//
// readOnly properties are excluded from required checks and rejected when
// present in a [Request]; writeOnly properties get the same treatment in a
// [Response]. [None] applies neither rule.
package validate
