// Package severity classifies issues reported by the compiler (warnings
// about ignored keywords) and by request/response conversion (errors).
package severity

// Severity indicates how serious an issue is. The zero value is
// SeverityError, so issues built without an explicit level are errors.
type Severity int

const (
	// SeverityError indicates a value that does not conform to its schema.
	SeverityError Severity = iota

	// SeverityWarning indicates a document construct the compiler accepted
	// but ignores, such as an unknown format.
	SeverityWarning

	// SeverityInfo indicates informational notices useful for debugging.
	SeverityInfo
)

var names = map[Severity]string{
	SeverityError:   "error",
	SeverityWarning: "warning",
	SeverityInfo:    "info",
}

var symbols = map[Severity]string{
	SeverityError:   "✗",
	SeverityWarning: "⚠",
	SeverityInfo:    "ℹ",
}

// String returns the lower-case name of the level.
func (s Severity) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return "unknown"
}

// Symbol returns the marker printed in front of rendered issues.
func (s Severity) Symbol() string {
	if sym, ok := symbols[s]; ok {
		return sym
	}
	return "?"
}

// MarshalText encodes the level by name so it reads well in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
