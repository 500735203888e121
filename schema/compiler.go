package schema

import (
	"fmt"
	"math"
	"path"
	"regexp"
	"strings"

	"github.com/erraggy/oasbind/loader"
	"github.com/erraggy/oasbind/oaserrors"
)

// DefaultMaxDepth is the maximum nesting of schema compilation.
const DefaultMaxDepth = 64

// Warning is a schema construct that compiled but is ignored.
type Warning struct {
	Pointer string
	Keyword string
	Message string
}

// String returns "pointer (keyword): message".
func (w Warning) String() string {
	return fmt.Sprintf("%s (%s): %s", w.Pointer, w.Keyword, w.Message)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithMaxDepth sets the maximum nesting of schema compilation. A value of 0
// keeps the default (64).
func WithMaxDepth(depth int) Option {
	return func(c *Compiler) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithLogger sets the logger that receives compile warnings.
func WithLogger(l loader.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// Compiler turns schema nodes of a loaded document into Schemas.
//
// Compiled schemas are memoized by node, so every reference to the same
// component yields the same *Schema. A schema is memoized only once it is
// complete: a reference cycle recurses until the depth limit and fails with
// a ResourceLimitError of type "schema_depth".
//
// A Compiler is not safe for concurrent use. Compile everything at startup;
// the returned Schemas are immutable and may be shared freely.
type Compiler struct {
	doc      *loader.Document
	memo     map[loader.NodeID]*Schema
	warnings []Warning
	maxDepth int
	logger   loader.Logger
}

// NewCompiler returns a Compiler for doc.
func NewCompiler(doc *loader.Document, opts ...Option) *Compiler {
	c := &Compiler{
		doc:      doc,
		memo:     make(map[loader.NodeID]*Schema),
		maxDepth: DefaultMaxDepth,
		logger:   loader.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Warnings returns the warnings recorded so far.
func (c *Compiler) Warnings() []Warning {
	return c.warnings
}

// Compile compiles the schema node at id. A missing node (loader.NoNode)
// compiles to Any.
func (c *Compiler) Compile(id loader.NodeID) (*Schema, error) {
	if id == loader.NoNode {
		return Any(), nil
	}
	return c.compile(id, 0)
}

// CompilePointer compiles the schema at a pointer such as
// "#/components/schemas/Pet".
func (c *Compiler) CompilePointer(pointer string) (*Schema, error) {
	id, err := c.doc.ResolveRef(c.doc.Root(), pointer)
	if err != nil {
		return nil, &oaserrors.SchemaError{Pointer: pointer, Message: "schema not found", Cause: err}
	}
	return c.compile(id, 0)
}

func (c *Compiler) compile(id loader.NodeID, depth int) (*Schema, error) {
	id = c.doc.Deref(id)
	if s, ok := c.memo[id]; ok {
		return s, nil
	}
	if depth >= c.maxDepth {
		return nil, &oaserrors.ResourceLimitError{
			ResourceType: "schema_depth",
			Limit:        int64(c.maxDepth),
			Pointer:      c.doc.Pointer(id),
			Message:      "schema nesting too deep (reference cycle?)",
		}
	}
	if c.doc.Kind(id) != loader.MappingNode {
		return nil, c.errorf(id, "", "schema must be an object")
	}

	comps, err := c.compositions(id, depth)
	if err != nil {
		return nil, err
	}
	// Compiling the combinators may have reached this node again through a
	// polymorphic subtype.
	if s, ok := c.memo[id]; ok {
		return s, nil
	}
	if len(comps) == 0 {
		s, err := c.build(id, depth)
		if err != nil {
			return nil, err
		}
		return c.finish(id, depth, s, comps)
	}

	base, err := c.build(id, depth)
	if err != nil {
		return nil, err
	}
	s := &Schema{
		Pointer:     base.Pointer,
		Kind:        KindComposition,
		Type:        base.Type,
		Format:      base.Format,
		FormatRules: base.FormatRules,
		Nullable:    base.Nullable,
		ReadOnly:    base.ReadOnly,
		WriteOnly:   base.WriteOnly,
		Default:     base.Default,
		HasDefault:  base.HasDefault,
	}
	if !c.hasConstraints(id) {
		base = nil
	}

	if err := c.checkAllOfTypes(id, s.Type, comps); err != nil {
		return nil, err
	}
	if err := c.attachDiscriminator(id, depth, comps); err != nil {
		return nil, err
	}

	if len(comps) == 1 {
		s.Composition = comps[0].Composition
		s.Discriminator = comps[0].Discriminator
		s.Composition.Base = base
	} else {
		s.Composition = &Composition{Kind: AllOf, Branches: comps, Base: base}
	}
	return c.finish(id, depth, s, comps)
}

// finish memoizes s and then attaches a polymorphic discriminator. The
// subtypes reference s through allOf, so s must be memoized first.
func (c *Compiler) finish(id loader.NodeID, depth int, s *Schema, comps []*Schema) (*Schema, error) {
	c.memo[id] = s
	if len(variants(comps)) > 0 {
		return s, nil
	}
	if err := c.attachPolymorphic(id, depth, s); err != nil {
		delete(c.memo, id)
		return nil, err
	}
	return s, nil
}

// compositions compiles the combinators present on a node, in the order
// allOf, anyOf, oneOf, not. Each is returned as its own composition schema.
func (c *Compiler) compositions(id loader.NodeID, depth int) ([]*Schema, error) {
	var out []*Schema
	for _, kw := range []struct {
		key  string
		kind CompositionKind
	}{{"allOf", AllOf}, {"anyOf", AnyOf}, {"oneOf", OneOf}} {
		raw := c.doc.Raw(id, kw.key)
		if raw == loader.NoNode {
			continue
		}
		items := c.doc.Items(raw)
		if c.doc.Kind(raw) != loader.SequenceNode || len(items) == 0 {
			return nil, c.errorf(id, kw.key, "must be a non-empty array")
		}
		comp := &Composition{Kind: kw.kind}
		for _, item := range items {
			b, err := c.compile(item, depth+1)
			if err != nil {
				return nil, err
			}
			comp.Branches = append(comp.Branches, b)
		}
		out = append(out, &Schema{Pointer: c.doc.Pointer(raw), Kind: KindComposition, Composition: comp})
	}
	if raw := c.doc.Raw(id, "not"); raw != loader.NoNode {
		b, err := c.compile(raw, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, &Schema{
			Pointer:     c.doc.Pointer(raw),
			Kind:        KindComposition,
			Composition: &Composition{Kind: Not, Branches: []*Schema{b}},
		})
	}
	return out, nil
}

// annotationKeys never constrain a value.
var annotationKeys = map[string]bool{
	"allOf": true, "anyOf": true, "oneOf": true, "not": true, "discriminator": true,
	"title": true, "description": true, "example": true, "externalDocs": true,
	"deprecated": true, "xml": true, "nullable": true, "readOnly": true,
	"writeOnly": true, "default": true,
}

// hasConstraints reports whether a composed node has sibling keywords that
// must be checked alongside its combinators.
func (c *Compiler) hasConstraints(id loader.NodeID) bool {
	for _, k := range c.doc.Keys(id) {
		if !annotationKeys[k] && !strings.HasPrefix(k, "x-") {
			return true
		}
	}
	return c.doc.Has(id, "x-patternProperties")
}

func compatibleTypes(a, b string) bool {
	if a == "" || b == "" || a == b {
		return true
	}
	return (a == TypeInteger && b == TypeNumber) || (a == TypeNumber && b == TypeInteger)
}

func (c *Compiler) checkAllOfTypes(id loader.NodeID, typ string, comps []*Schema) error {
	if typ == "" {
		return nil
	}
	for _, comp := range comps {
		if comp.Composition.Kind != AllOf {
			continue
		}
		for _, b := range comp.Composition.Branches {
			if !compatibleTypes(typ, b.Type) {
				return c.errorf(id, "allOf", "type %q conflicts with allOf branch type %q at %s", typ, b.Type, b.Pointer)
			}
		}
	}
	return nil
}

// variants returns the oneOf and anyOf compositions among comps.
func variants(comps []*Schema) []*Schema {
	var out []*Schema
	for _, comp := range comps {
		if k := comp.Composition.Kind; k == OneOf || k == AnyOf {
			out = append(out, comp)
		}
	}
	return out
}

// discriminatorProperty returns the discriminator node of id and its
// propertyName, or NoNode when id has no discriminator.
func (c *Compiler) discriminatorProperty(id loader.NodeID) (loader.NodeID, string, error) {
	raw := c.doc.Get(id, "discriminator")
	if raw == loader.NoNode {
		return loader.NoNode, "", nil
	}
	prop, _ := c.doc.String(c.doc.Get(raw, "propertyName"))
	if prop == "" {
		return loader.NoNode, "", c.errorf(id, "discriminator", "propertyName is required")
	}
	return raw, prop, nil
}

// attachDiscriminator builds the discriminator mapping for the oneOf and
// anyOf compositions of a node.
func (c *Compiler) attachDiscriminator(id loader.NodeID, depth int, comps []*Schema) error {
	raw, prop, err := c.discriminatorProperty(id)
	if raw == loader.NoNode {
		return err
	}

	for _, comp := range variants(comps) {
		d := &Discriminator{PropertyName: prop, Mapping: make(map[string]*Schema)}
		key := "oneOf"
		if comp.Composition.Kind == AnyOf {
			key = "anyOf"
		}
		for i, item := range c.doc.Items(c.doc.Raw(id, key)) {
			n := c.doc.Node(item)
			if !n.IsRef() {
				continue
			}
			d.Mapping[refName(n.Ref)] = comp.Composition.Branches[i]
		}
		if err := c.explicitMapping(raw, depth, d); err != nil {
			return err
		}
		comp.Discriminator = d
	}
	return nil
}

// attachPolymorphic gives a discriminated schema without oneOf or anyOf a
// mapping to its subtypes: the component schemas whose first allOf branch
// references it, each mapped under its component name.
func (c *Compiler) attachPolymorphic(id loader.NodeID, depth int, s *Schema) error {
	raw, prop, err := c.discriminatorProperty(id)
	if raw == loader.NoNode {
		return err
	}

	d := &Discriminator{PropertyName: prop, Polymorphic: true, Mapping: make(map[string]*Schema)}
	schemas := c.doc.Get(c.doc.Get(c.doc.Root(), "components"), "schemas")
	for _, name := range c.doc.Keys(schemas) {
		sub := c.doc.Get(schemas, name)
		items := c.doc.Items(c.doc.Raw(sub, "allOf"))
		if len(items) == 0 || !c.doc.Node(items[0]).IsRef() || c.doc.Deref(items[0]) != id {
			continue
		}
		subSchema, err := c.compile(sub, depth+1)
		if err != nil {
			return err
		}
		d.Mapping[name] = subSchema
	}
	if err := c.explicitMapping(raw, depth, d); err != nil {
		return err
	}
	if len(d.Mapping) == 0 {
		c.warn(id, "discriminator", "discriminator without oneOf, anyOf or allOf subtypes is ignored")
		return nil
	}
	s.Discriminator = d
	return nil
}

// explicitMapping adds the mapping entries of a discriminator node to d,
// replacing implicit names.
func (c *Compiler) explicitMapping(raw loader.NodeID, depth int, d *Discriminator) error {
	mapping := c.doc.Get(raw, "mapping")
	for j, value := range c.doc.Keys(mapping) {
		ref, ok := c.doc.String(c.doc.Node(c.doc.Deref(mapping)).Children[j])
		if !ok {
			return c.errorf(raw, "discriminator", "mapping value for %q must be a string", value)
		}
		if !strings.ContainsAny(ref, "#/") {
			ref = "#/components/schemas/" + ref
		}
		target, err := c.doc.ResolveRef(raw, ref)
		if err != nil {
			return &oaserrors.SchemaError{
				Pointer: c.doc.Pointer(raw),
				Keyword: "discriminator",
				Message: fmt.Sprintf("mapping %q targets unresolvable schema %q", value, ref),
				Cause:   err,
			}
		}
		s, err := c.compile(target, depth+1)
		if err != nil {
			return err
		}
		d.Mapping[value] = s
	}
	return nil
}

// refName is the implicit discriminator value of a reference: its last
// pointer segment, or the file name without extension when the reference
// names a whole file.
func refName(ref string) string {
	if !strings.Contains(ref, "#") {
		base := path.Base(ref)
		return strings.TrimSuffix(base, path.Ext(base))
	}
	return ref[strings.LastIndex(ref, "/")+1:]
}

var validTypes = map[string]Kind{
	TypeBoolean: KindPrimitive,
	TypeInteger: KindPrimitive,
	TypeNumber:  KindPrimitive,
	TypeString:  KindPrimitive,
	TypeArray:   KindArray,
	TypeObject:  KindObject,
}

// build compiles every keyword of a node except the combinators.
func (c *Compiler) build(id loader.NodeID, depth int) (*Schema, error) {
	doc := c.doc
	s := &Schema{Pointer: doc.Pointer(id)}

	if raw := doc.Get(id, "type"); raw != loader.NoNode {
		t, ok := doc.String(raw)
		kind, known := validTypes[t]
		if !ok || !known {
			return nil, c.errorf(id, "type", "unknown type %q", doc.Node(raw).Value)
		}
		s.Type = t
		s.Kind = kind
	}

	if raw := doc.Get(id, "format"); raw != loader.NoNode {
		s.Format, _ = doc.String(raw)
		if f, ok := LookupFormat(s.Format); ok {
			s.FormatRules = &f
		} else if s.Format != "" {
			c.warn(id, "format", fmt.Sprintf("unknown format %q is ignored", s.Format))
		}
	}

	var err error
	if s.Nullable, err = c.flag(id, "nullable"); err != nil {
		return nil, err
	}
	if s.ReadOnly, err = c.flag(id, "readOnly"); err != nil {
		return nil, err
	}
	if s.WriteOnly, err = c.flag(id, "writeOnly"); err != nil {
		return nil, err
	}
	if s.ReadOnly && s.WriteOnly {
		return nil, c.errorf(id, "readOnly", "a property cannot be both readOnly and writeOnly")
	}

	if doc.Has(id, "default") {
		s.Default = doc.Value(doc.Raw(id, "default"))
		s.HasDefault = true
	}
	if raw := doc.Raw(id, "enum"); raw != loader.NoNode {
		if doc.Kind(raw) != loader.SequenceNode {
			return nil, c.errorf(id, "enum", "must be an array")
		}
		for _, item := range doc.Items(raw) {
			s.Enum = append(s.Enum, doc.Value(item))
		}
	}

	if err := c.stringKeywords(id, s); err != nil {
		return nil, err
	}
	if err := c.numericKeywords(id, s); err != nil {
		return nil, err
	}
	if err := c.arrayKeywords(id, s, depth); err != nil {
		return nil, err
	}
	if err := c.objectKeywords(id, s, depth); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Compiler) stringKeywords(id loader.NodeID, s *Schema) error {
	var err error
	if s.MinLength, err = c.count(id, "minLength"); err != nil {
		return err
	}
	if s.MaxLength, err = c.count(id, "maxLength"); err != nil {
		return err
	}
	if raw := c.doc.Get(id, "pattern"); raw != loader.NoNode {
		p, ok := c.doc.String(raw)
		if !ok {
			return c.errorf(id, "pattern", "must be a string")
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return &oaserrors.SchemaError{Pointer: c.doc.Pointer(id), Keyword: "pattern", Message: "invalid regular expression", Cause: err}
		}
		s.Pattern = re
	}
	return nil
}

func (c *Compiler) numericKeywords(id loader.NodeID, s *Schema) error {
	var err error
	if s.Minimum, err = c.number(id, "minimum"); err != nil {
		return err
	}
	if s.Maximum, err = c.number(id, "maximum"); err != nil {
		return err
	}
	if s.ExclusiveMinimum, err = c.flag(id, "exclusiveMinimum"); err != nil {
		return err
	}
	if s.ExclusiveMaximum, err = c.flag(id, "exclusiveMaximum"); err != nil {
		return err
	}
	if s.MultipleOf, err = c.number(id, "multipleOf"); err != nil {
		return err
	}
	if s.MultipleOf != nil && *s.MultipleOf <= 0 {
		return c.errorf(id, "multipleOf", "must be greater than 0")
	}
	return nil
}

func (c *Compiler) arrayKeywords(id loader.NodeID, s *Schema, depth int) error {
	var err error
	if raw := c.doc.Raw(id, "items"); raw != loader.NoNode {
		if s.Items, err = c.compile(raw, depth+1); err != nil {
			return err
		}
		if s.Kind == KindAny && s.Type == "" {
			s.Kind = KindArray
		}
	} else if s.Type == TypeArray {
		return c.errorf(id, "items", "array schema requires items")
	}
	if s.MinItems, err = c.count(id, "minItems"); err != nil {
		return err
	}
	if s.MaxItems, err = c.count(id, "maxItems"); err != nil {
		return err
	}
	s.UniqueItems, err = c.flag(id, "uniqueItems")
	return err
}

func (c *Compiler) objectKeywords(id loader.NodeID, s *Schema, depth int) error {
	doc := c.doc
	if raw := doc.Raw(id, "properties"); raw != loader.NoNode {
		if doc.Kind(raw) != loader.MappingNode {
			return c.errorf(id, "properties", "must be an object")
		}
		children := doc.Node(doc.Deref(raw)).Children
		s.Properties = make(map[string]*Schema, len(children))
		for i, name := range doc.Keys(raw) {
			p, err := c.compile(children[i], depth+1)
			if err != nil {
				return err
			}
			s.Properties[name] = p
			s.PropertyOrder = append(s.PropertyOrder, name)
		}
	}

	if raw := doc.Raw(id, "required"); raw != loader.NoNode {
		if doc.Kind(raw) != loader.SequenceNode {
			return c.errorf(id, "required", "must be an array of strings")
		}
		for _, item := range doc.Items(raw) {
			name, ok := doc.String(item)
			if !ok {
				return c.errorf(id, "required", "must be an array of strings")
			}
			s.Required = append(s.Required, name)
		}
	}

	if raw := doc.Raw(id, "additionalProperties"); raw != loader.NoNode {
		if allowed, ok := doc.Bool(raw); ok {
			if !allowed {
				s.Additional = AdditionalForbidden
			}
		} else {
			as, err := c.compile(raw, depth+1)
			if err != nil {
				return err
			}
			s.Additional = AdditionalSchema
			s.AdditionalSchema = as
		}
	}

	if raw := doc.Raw(id, "x-patternProperties"); raw != loader.NoNode {
		children := doc.Node(doc.Deref(raw)).Children
		for i, pattern := range doc.Keys(raw) {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return &oaserrors.SchemaError{Pointer: doc.Pointer(id), Keyword: "x-patternProperties", Message: "invalid regular expression", Cause: err}
			}
			ps, err := c.compile(children[i], depth+1)
			if err != nil {
				return err
			}
			s.PatternProperties = append(s.PatternProperties, PatternProperty{Pattern: re, Schema: ps})
		}
	}

	var err error
	if s.MinProperties, err = c.count(id, "minProperties"); err != nil {
		return err
	}
	if s.MaxProperties, err = c.count(id, "maxProperties"); err != nil {
		return err
	}

	if s.Kind == KindAny && s.Type == "" && (s.Properties != nil || s.Additional != AdditionalAllowed) {
		s.Kind = KindObject
	}
	return nil
}

func (c *Compiler) flag(id loader.NodeID, key string) (bool, error) {
	raw := c.doc.Get(id, key)
	if raw == loader.NoNode {
		return false, nil
	}
	b, ok := c.doc.Bool(raw)
	if !ok {
		return false, c.errorf(id, key, "must be a boolean")
	}
	return b, nil
}

func (c *Compiler) number(id loader.NodeID, key string) (*float64, error) {
	raw := c.doc.Get(id, key)
	if raw == loader.NoNode {
		return nil, nil
	}
	f, ok := c.doc.Number(raw)
	if !ok || math.IsNaN(f) {
		return nil, c.errorf(id, key, "must be a number")
	}
	return &f, nil
}

func (c *Compiler) count(id loader.NodeID, key string) (*int64, error) {
	raw := c.doc.Get(id, key)
	if raw == loader.NoNode {
		return nil, nil
	}
	n, ok := c.doc.Int(raw)
	if !ok || n < 0 {
		return nil, c.errorf(id, key, "must be a non-negative integer")
	}
	return &n, nil
}

func (c *Compiler) errorf(id loader.NodeID, keyword, format string, args ...any) error {
	return &oaserrors.SchemaError{
		Pointer: c.doc.Pointer(id),
		Keyword: keyword,
		Message: fmt.Sprintf(format, args...),
	}
}

func (c *Compiler) warn(id loader.NodeID, keyword, msg string) {
	w := Warning{Pointer: c.doc.Pointer(id), Keyword: keyword, Message: msg}
	c.warnings = append(c.warnings, w)
	c.logger.Warn("schema warning", "pointer", w.Pointer, "keyword", keyword, "message", msg)
}
