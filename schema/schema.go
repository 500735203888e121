package schema

import (
	"regexp"
	"slices"
)

// Kind is the variant tag of a compiled Schema.
type Kind uint8

const (
	// KindAny accepts any value; constraints still apply to matching value types.
	KindAny Kind = iota
	// KindPrimitive is a boolean, integer, number or string schema.
	KindPrimitive
	// KindArray is an array schema with an item schema.
	KindArray
	// KindObject is an object schema.
	KindObject
	// KindComposition is an allOf, oneOf, anyOf or not schema.
	KindComposition
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindComposition:
		return "composition"
	default:
		return "unknown"
	}
}

// Type names accepted in the type keyword.
const (
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeArray   = "array"
	TypeObject  = "object"
)

// CompositionKind selects the combinator of a Composition.
type CompositionKind uint8

const (
	AllOf CompositionKind = iota
	OneOf
	AnyOf
	Not
)

// String returns the keyword of the combinator.
func (k CompositionKind) String() string {
	switch k {
	case AllOf:
		return "allOf"
	case OneOf:
		return "oneOf"
	case AnyOf:
		return "anyOf"
	case Not:
		return "not"
	default:
		return "unknown"
	}
}

// AdditionalPolicy controls properties not named in Properties.
type AdditionalPolicy uint8

const (
	// AdditionalAllowed accepts any additional property.
	AdditionalAllowed AdditionalPolicy = iota
	// AdditionalForbidden rejects every additional property.
	AdditionalForbidden
	// AdditionalSchema validates additional properties against AdditionalSchema.
	AdditionalSchema
)

// Schema is a compiled, immutable schema descriptor.
//
// The zero value of every constraint field means "no constraint". Pointer
// fields distinguish an absent bound from a zero bound.
type Schema struct {
	// Pointer is the absolute location of the source node.
	Pointer string
	Kind    Kind

	// Type is the declared type, empty when absent.
	Type   string
	Format string

	// FormatRules is the registered Format named by Format, resolved at
	// compile time. It is nil for unknown formats.
	FormatRules *Format

	Nullable   bool
	ReadOnly   bool
	WriteOnly  bool
	Default    any
	HasDefault bool
	Enum       []any

	MinLength *int64
	MaxLength *int64
	Pattern   *regexp.Regexp

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64

	Items       *Schema
	MinItems    *int64
	MaxItems    *int64
	UniqueItems bool

	Properties        map[string]*Schema
	PropertyOrder     []string
	Required          []string
	Additional        AdditionalPolicy
	AdditionalSchema  *Schema
	PatternProperties []PatternProperty
	MinProperties     *int64
	MaxProperties     *int64

	Composition   *Composition
	Discriminator *Discriminator
}

// PatternProperty validates properties whose names match Pattern.
type PatternProperty struct {
	Pattern *regexp.Regexp
	Schema  *Schema
}

// Composition combines branch schemas. Base holds the sibling keywords of
// the composed node; a value must satisfy Base as well as the combinator.
type Composition struct {
	Kind     CompositionKind
	Branches []*Schema
	Base     *Schema
}

// Discriminator pre-selects a oneOf/anyOf branch by the value of PropertyName.
//
// A Polymorphic discriminator sits on a base schema instead. Its Mapping
// selects the subtypes that extend the base through allOf, and it is not
// applied while the base is checked as an allOf branch of a subtype.
type Discriminator struct {
	PropertyName string
	Mapping      map[string]*Schema
	Polymorphic  bool
}

// Any returns a schema that accepts every value, null included.
// It stands in for absent schemas.
func Any() *Schema {
	return &Schema{Kind: KindAny, Nullable: true}
}

// Formatter returns the rules of the schema's format. Schemas built without
// the compiler fall back to the format registry.
func (s *Schema) Formatter() (Format, bool) {
	if s.FormatRules != nil {
		return *s.FormatRules, true
	}
	if s.Format == "" {
		return Format{}, false
	}
	return LookupFormat(s.Format)
}

// IsBinary reports whether the schema describes raw bytes.
func (s *Schema) IsBinary() bool {
	return s != nil && s.Format == "binary" && (s.Type == "" || s.Type == TypeString)
}

// EffectiveType returns the type a value of this schema takes on the wire.
// It looks through compositions and infers object and array from
// properties and items when type is absent.
func (s *Schema) EffectiveType() string {
	if s == nil {
		return ""
	}
	if s.Type != "" {
		return s.Type
	}
	if c := s.Composition; c != nil {
		if t := c.Base.EffectiveType(); t != "" {
			return t
		}
		if c.Kind == Not {
			return ""
		}
		for _, b := range c.Branches {
			if t := b.EffectiveType(); t != "" {
				return t
			}
		}
		return ""
	}
	switch {
	case s.Items != nil:
		return TypeArray
	case len(s.Properties) > 0 || len(s.Required) > 0 || s.Additional != AdditionalAllowed:
		return TypeObject
	}
	return ""
}

// PropertySchema returns the schema of a named property, searching the base
// and branches of compositions. It falls back to the additional-properties
// schema and returns nil when the property is unknown.
func (s *Schema) PropertySchema(name string) *Schema {
	if s == nil {
		return nil
	}
	if p, ok := s.Properties[name]; ok {
		return p
	}
	if c := s.Composition; c != nil && c.Kind != Not {
		if p := c.Base.PropertySchema(name); p != nil {
			return p
		}
		for _, b := range c.Branches {
			if p := b.PropertySchema(name); p != nil {
				return p
			}
		}
	}
	for _, pp := range s.PatternProperties {
		if pp.Pattern.MatchString(name) {
			return pp.Schema
		}
	}
	if s.Additional == AdditionalSchema {
		return s.AdditionalSchema
	}
	return nil
}

// ItemSchema returns the item schema of an array, looking through compositions.
func (s *Schema) ItemSchema() *Schema {
	if s == nil {
		return nil
	}
	if s.Items != nil {
		return s.Items
	}
	if c := s.Composition; c != nil && c.Kind != Not {
		if it := c.Base.ItemSchema(); it != nil {
			return it
		}
		for _, b := range c.Branches {
			if it := b.ItemSchema(); it != nil {
				return it
			}
		}
	}
	return nil
}

// DeclaredProperties lists property names in document order, including
// those declared by composition branches. Duplicates are dropped.
func (s *Schema) DeclaredProperties() []string {
	var out []string
	s.collectProperties(&out)
	return out
}

func (s *Schema) collectProperties(out *[]string) {
	if s == nil {
		return
	}
	for _, name := range s.PropertyOrder {
		if !slices.Contains(*out, name) {
			*out = append(*out, name)
		}
	}
	if c := s.Composition; c != nil && c.Kind != Not {
		c.Base.collectProperties(out)
		for _, b := range c.Branches {
			b.collectProperties(out)
		}
	}
}
