// Package issues provides the issue type shared by validation, parameter
// decoding, body decoding, and response rendering.
//
// Request-time problems are data, not Go errors: every component appends
// Issue values and the pipeline returns the accumulated list.
package issues

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erraggy/oasbind/internal/pathutil"
	"github.com/erraggy/oasbind/internal/severity"
)

// Kind classifies an issue.
type Kind string

// Value kinds reported by the validator.
const (
	KindType                 Kind = "type"
	KindBounds               Kind = "bounds"
	KindMultipleOf           Kind = "multiple_of"
	KindLength               Kind = "length"
	KindPattern              Kind = "pattern"
	KindFormat               Kind = "format"
	KindEnum                 Kind = "enum"
	KindRequired             Kind = "required"
	KindItems                Kind = "items"
	KindUniqueItems          Kind = "unique_items"
	KindAdditionalProperties Kind = "additional_properties"
	KindProperties           Kind = "properties"
	KindReadOnly             Kind = "read_only"
	KindWriteOnly            Kind = "write_only"
	KindComposition          Kind = "composition"
	KindAmbiguousMatch       Kind = "ambiguous_match"
	KindDiscriminator        Kind = "discriminator"
)

// Codec and pipeline kinds.
const (
	KindMissingParameter     Kind = "missing_parameter"
	KindParameterFormat      Kind = "parameter_format"
	KindUnsupportedMediaType Kind = "unsupported_media_type"
	KindBodyFormat           Kind = "body_format"
	KindBodyTooLarge         Kind = "body_too_large"
	KindUndeclaredResponse   Kind = "undeclared_response"
)

// Locations an issue can be reported in.
const (
	InPath     = "path"
	InQuery    = "query"
	InHeader   = "header"
	InCookie   = "cookie"
	InBody     = "body"
	InResponse = "response"
)

// Issue represents a single problem found while converting or rendering a value.
type Issue struct {
	// In is the location of the value: path, query, header, cookie, body or response.
	In string
	// Name is the parameter or header name, empty for bodies.
	Name string
	// Path locates the problem inside the value, one segment per property or index.
	Path []string
	// Kind classifies the problem.
	Kind Kind
	// Message is a human-readable description of the issue.
	Message string
	// Severity indicates the severity level of the issue.
	Severity severity.Severity
	// Value is the offending value (optional, redacted for passwords).
	Value any
	// Branches holds one error set per rejected oneOf/anyOf candidate,
	// attached only when every candidate failed.
	Branches [][]Issue
}

// New creates an error-severity issue.
func New(kind Kind, path []string, format string, args ...any) Issue {
	return Issue{
		Path:     path,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Severity: severity.SeverityError,
	}
}

// Pointer renders Path as a JSON Pointer. The root renders as "/".
func (i Issue) Pointer() string {
	return pathutil.Pointer(i.Path)
}

// String renders the issue as "<symbol> <in> <name> <pointer> [<kind>]: <message>",
// where the symbol comes from the severity.
func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(i.Severity.Symbol())
	b.WriteByte(' ')
	if i.In != "" {
		b.WriteString(i.In)
		if i.Name != "" {
			b.WriteByte(' ')
			b.WriteString(i.Name)
		}
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%s [%s]: %s", i.Pointer(), i.Kind, i.Message)
	return b.String()
}

// Error lets an Issue be returned where an error is expected.
func (i Issue) Error() string {
	return i.String()
}

type issueJSON struct {
	In       string            `json:"in,omitempty"`
	Name     string            `json:"name,omitempty"`
	Path     string            `json:"path"`
	Kind     Kind              `json:"kind"`
	Message  string            `json:"message"`
	Severity severity.Severity `json:"severity"`
	Value    any               `json:"value,omitempty"`
	Branches [][]Issue         `json:"branches,omitempty"`
}

// MarshalJSON renders the path as a JSON Pointer and the severity as text.
func (i Issue) MarshalJSON() ([]byte, error) {
	return json.Marshal(issueJSON{
		In:       i.In,
		Name:     i.Name,
		Path:     i.Pointer(),
		Kind:     i.Kind,
		Message:  i.Message,
		Severity: i.Severity,
		Value:    i.Value,
		Branches: i.Branches,
	})
}

// Locate sets In and Name on every issue that does not have them yet.
// It modifies the slice in place and returns it.
func Locate(list []Issue, in, name string) []Issue {
	for idx := range list {
		if list[idx].In == "" {
			list[idx].In = in
		}
		if list[idx].Name == "" {
			list[idx].Name = name
		}
	}
	return list
}

// HasKind reports whether any issue in list has the given kind.
func HasKind(list []Issue, kind Kind) bool {
	for _, i := range list {
		if i.Kind == kind {
			return true
		}
	}
	return false
}

// OnlyKind reports whether list is non-empty and every issue has the given kind.
func OnlyKind(list []Issue, kind Kind) bool {
	if len(list) == 0 {
		return false
	}
	for _, i := range list {
		if i.Kind != kind {
			return false
		}
	}
	return true
}

// Kinds returns the distinct kinds in list, in first-seen order.
func Kinds(list []Issue) []Kind {
	var out []Kind
	seen := make(map[Kind]bool)
	for _, i := range list {
		if !seen[i.Kind] {
			seen[i.Kind] = true
			out = append(out, i.Kind)
		}
	}
	return out
}
