package paramcodec

import (
	"fmt"
	"slices"

	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/schema"
)

// ValidationError describes one problem with a parameter value.
type ValidationError = issues.Issue

// Values holds raw parameter strings by name. url.Values and http.Header
// convert to it directly.
type Values map[string][]string

// Style is a parameter serialization style.
type Style string

// Serialization styles.
const (
	StyleSimple         Style = "simple"
	StyleLabel          Style = "label"
	StyleMatrix         Style = "matrix"
	StyleForm           Style = "form"
	StyleSpaceDelimited Style = "spaceDelimited"
	StylePipeDelimited  Style = "pipeDelimited"
	StyleDeepObject     Style = "deepObject"
)

// Parameter is a compiled parameter definition.
type Parameter struct {
	// In is the location: path, query, header or cookie.
	In   string
	Name string
	// Required is always true for path parameters.
	Required bool
	Style    Style
	Explode  bool
	// AllowEmptyValue is nil when the document does not set it.
	AllowEmptyValue *bool
	// Schema is the compiled schema; nil accepts any value.
	Schema *schema.Schema
	// ContentType is set for content-typed parameters, which carry a single
	// serialized value instead of a style.
	ContentType string
}

var allowedStyles = map[string][]Style{
	issues.InPath:   {StyleSimple, StyleLabel, StyleMatrix},
	issues.InQuery:  {StyleForm, StyleSpaceDelimited, StylePipeDelimited, StyleDeepObject},
	issues.InHeader: {StyleSimple},
	issues.InCookie: {StyleForm},
}

// DefaultStyle returns the style used when a parameter in the given
// location declares none.
func DefaultStyle(in string) Style {
	switch in {
	case issues.InQuery, issues.InCookie:
		return StyleForm
	default:
		return StyleSimple
	}
}

// DefaultExplode returns the explode value used when a parameter declares none.
func DefaultExplode(style Style) bool {
	return style == StyleForm
}

// ValidateStyle reports whether style may be used in the given location.
func ValidateStyle(in string, style Style) error {
	styles, ok := allowedStyles[in]
	if !ok {
		return fmt.Errorf("unknown parameter location %q", in)
	}
	if !slices.Contains(styles, style) {
		return fmt.Errorf("style %q is not allowed for %s parameters", style, in)
	}
	return nil
}

// style returns the effective style of p.
func (p *Parameter) style() Style {
	if p.Style == "" {
		return DefaultStyle(p.In)
	}
	return p.Style
}

// explode returns the effective explode flag of p.
func (p *Parameter) explode() bool {
	if p.In == issues.InCookie {
		return false
	}
	return p.Explode
}

func (p *Parameter) required() bool {
	return p.Required || p.In == issues.InPath
}

func (p *Parameter) issue(kind issues.Kind, format string, args ...any) ValidationError {
	e := issues.New(kind, nil, format, args...)
	e.In = p.In
	e.Name = p.Name
	return e
}

func (p *Parameter) formatError(format string, args ...any) []ValidationError {
	return []ValidationError{p.issue(issues.KindParameterFormat, format, args...)}
}

type shape uint8

const (
	shapePrimitive shape = iota
	shapeArray
	shapeObject
)

func shapeOf(s *schema.Schema) shape {
	switch s.EffectiveType() {
	case schema.TypeArray:
		return shapeArray
	case schema.TypeObject:
		return shapeObject
	default:
		return shapePrimitive
	}
}
