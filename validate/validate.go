package validate

import (
	"encoding/base64"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/internal/pathutil"
	"github.com/erraggy/oasbind/schema"
)

// ValidationError describes one violation. Its Path is relative to the
// validated value; Pointer renders it as a JSON Pointer with "/" for the root.
type ValidationError = issues.Issue

// Kind classifies a ValidationError.
type Kind = issues.Kind

// Error kinds reported by the validator.
const (
	KindType                 = issues.KindType
	KindBounds               = issues.KindBounds
	KindMultipleOf           = issues.KindMultipleOf
	KindLength               = issues.KindLength
	KindPattern              = issues.KindPattern
	KindFormat               = issues.KindFormat
	KindEnum                 = issues.KindEnum
	KindRequired             = issues.KindRequired
	KindItems                = issues.KindItems
	KindUniqueItems          = issues.KindUniqueItems
	KindAdditionalProperties = issues.KindAdditionalProperties
	KindProperties           = issues.KindProperties
	KindReadOnly             = issues.KindReadOnly
	KindWriteOnly            = issues.KindWriteOnly
	KindComposition          = issues.KindComposition
	KindAmbiguousMatch       = issues.KindAmbiguousMatch
	KindDiscriminator        = issues.KindDiscriminator
)

// redacted replaces values of format password in errors.
const redacted = "********"

// Validate checks value against s and returns every violation.
func Validate(value any, s *schema.Schema, opts ...Option) []ValidationError {
	_, errs := Convert(value, s, opts...)
	return errs
}

// Convert checks value against s and returns the converted value together
// with every violation. The converted value is meaningful only when no
// errors are returned; the input is never modified.
//
// In the request direction strings of a converting format take their typed
// form: date and date-time become time.Time and byte becomes the decoded
// []byte. Such typed values are accepted again as input.
func Convert(value any, s *schema.Schema, opts ...Option) (any, []ValidationError) {
	cfg := applyOptions(opts)
	v := &validator{dir: cfg.direction}
	if s == nil {
		s = schema.Any()
	}
	out, errs := v.convert(value, s, cfg.path)
	if cfg.in != "" || cfg.name != "" {
		issues.Locate(errs, cfg.in, cfg.name)
	}
	return out, errs
}

// DefaultValue returns a copy of the default of s. In the request direction
// a string default whose format converts is returned in its typed form.
func DefaultValue(s *schema.Schema, opts ...Option) any {
	return defaultValue(s, applyOptions(opts).direction)
}

func defaultValue(s *schema.Schema, dir Direction) any {
	def := Clone(s.Default)
	if str, ok := def.(string); ok && dir == Request {
		return convertFormat(str, s)
	}
	return def
}

type validator struct {
	dir Direction
}

func (v *validator) fail(s *schema.Schema, kind Kind, path []string, value any, format string, args ...any) ValidationError {
	e := issues.New(kind, path, format, args...)
	if s != nil && s.Format == "password" {
		e.Value = redacted
	} else if isScalar(value) {
		e.Value = value
	}
	return e
}

func isScalar(v any) bool {
	switch v.(type) {
	case bool, string, int64, float64:
		return true
	}
	return false
}

func (v *validator) convert(value any, s *schema.Schema, path []string) (any, []ValidationError) {
	return v.check(value, s, path, true)
}

// check converts value against s. A polymorphic discriminator on s selects
// a subtype only when dispatch is set.
func (v *validator) check(value any, s *schema.Schema, path []string, dispatch bool) (any, []ValidationError) {
	switch value.(type) {
	case time.Time, []byte:
		if s.Composition != nil && s.Format == "" {
			return v.composition(value, s, path)
		}
		if wire, ok := formatted(value, s); ok {
			out, errs := v.check(wire, s, path, dispatch)
			if _, still := out.(string); still && len(errs) == 0 && v.dir == Request {
				return value, nil
			}
			return out, errs
		}
	}

	val, ok := Normalize(value)
	if !ok {
		return value, []ValidationError{v.fail(s, KindType, path, nil, "unsupported value of Go type %T", value)}
	}

	if val == nil {
		if s.Nullable {
			return nil, nil
		}
		return nil, []ValidationError{v.fail(s, KindType, path, nil, "null is not allowed")}
	}

	if dispatch && s.Discriminator != nil && s.Discriminator.Polymorphic {
		return v.discriminated(val, s, path)
	}
	if s.Composition != nil {
		return v.composition(val, s, path)
	}

	val, ok = v.checkType(val, s)
	if !ok {
		return val, []ValidationError{v.fail(s, KindType, path, val, "expected %s, got %s", s.Type, typeName(val))}
	}

	var errs []ValidationError
	if len(s.Enum) > 0 && !inEnum(val, s.Enum) {
		errs = append(errs, v.fail(s, KindEnum, path, val, "value is not one of the allowed values %s", enumList(s)))
	}

	switch x := val.(type) {
	case string:
		errs = append(errs, v.checkString(x, s, path)...)
		if len(errs) == 0 && v.dir == Request {
			val = convertFormat(x, s)
		}
	case []byte:
		errs = append(errs, v.checkLength(int64(len(x)), s, path, x)...)
	case int64:
		errs = append(errs, v.checkNumber(float64(x), x, s, path)...)
	case float64:
		errs = append(errs, v.checkNumber(x, x, s, path)...)
	case []any:
		var out []any
		var arrErrs []ValidationError
		out, arrErrs = v.checkArray(x, s, path)
		errs = append(errs, arrErrs...)
		val = out
	case map[string]any:
		var out map[string]any
		var objErrs []ValidationError
		out, objErrs = v.checkObject(x, s, path)
		errs = append(errs, objErrs...)
		val = out
	}
	return val, errs
}

// checkType verifies the declared type and converts numbers to the
// representation of that type.
func (v *validator) checkType(val any, s *schema.Schema) (any, bool) {
	switch s.Type {
	case "":
		return val, true
	case schema.TypeBoolean:
		_, ok := val.(bool)
		return val, ok
	case schema.TypeString:
		switch val.(type) {
		case string:
			return val, true
		case []byte:
			return val, s.IsBinary()
		}
		return val, false
	case schema.TypeInteger:
		switch n := val.(type) {
		case int64:
			return n, true
		case float64:
			if n == math.Trunc(n) && !math.IsInf(n, 0) && n >= math.MinInt64 && n < math.MaxInt64 {
				return int64(n), true
			}
		}
		return val, false
	case schema.TypeNumber:
		switch n := val.(type) {
		case int64:
			return float64(n), true
		case float64:
			return n, true
		}
		return val, false
	case schema.TypeArray:
		_, ok := val.([]any)
		return val, ok
	case schema.TypeObject:
		_, ok := val.(map[string]any)
		return val, ok
	}
	return val, false
}

func typeName(v any) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case string:
		return "string"
	case []byte:
		return "binary"
	case int64:
		return "integer"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

func inEnum(val any, enum []any) bool {
	c := Canonical(val)
	for _, e := range enum {
		if Canonical(e) == c {
			return true
		}
	}
	return false
}

func enumList(s *schema.Schema) string {
	if s.Format == "password" {
		return "(redacted)"
	}
	parts := make([]string, len(s.Enum))
	for i, e := range s.Enum {
		parts[i] = Canonical(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (v *validator) checkString(x string, s *schema.Schema, path []string) []ValidationError {
	errs := v.checkLength(int64(utf8.RuneCountInString(x)), s, path, x)
	if s.Pattern != nil && !s.Pattern.MatchString(x) {
		errs = append(errs, v.fail(s, KindPattern, path, x, "does not match pattern %q", s.Pattern.String()))
	}
	if err := checkFormat(s, x); err != nil {
		errs = append(errs, v.fail(s, KindFormat, path, x, "%s: %v", s.Format, err))
	}
	return errs
}

func checkFormat(s *schema.Schema, val any) error {
	f, ok := s.Formatter()
	if !ok || f.Check == nil {
		return nil
	}
	return f.Check(val)
}

// convertFormat returns the typed form of a checked string, or the string
// itself when its format does not convert.
func convertFormat(x string, s *schema.Schema) any {
	f, ok := s.Formatter()
	if !ok || f.Convert == nil {
		return x
	}
	typed, err := f.Convert(x)
	if err != nil {
		return x
	}
	return typed
}

// formatted renders a value produced by a format conversion back into its
// string form, so converted values can be checked again.
func formatted(value any, s *schema.Schema) (string, bool) {
	switch x := value.(type) {
	case time.Time:
		if s.Format == "date" {
			return x.Format(schema.DateLayout), true
		}
		return x.Format(time.RFC3339Nano), true
	case []byte:
		if s.Format == "byte" {
			return base64.StdEncoding.EncodeToString(x), true
		}
	}
	return "", false
}

func (v *validator) checkLength(n int64, s *schema.Schema, path []string, val any) []ValidationError {
	var errs []ValidationError
	if s.MinLength != nil && n < *s.MinLength {
		errs = append(errs, v.fail(s, KindLength, path, val, "length %d is less than minLength %d", n, *s.MinLength))
	}
	if s.MaxLength != nil && n > *s.MaxLength {
		errs = append(errs, v.fail(s, KindLength, path, val, "length %d is greater than maxLength %d", n, *s.MaxLength))
	}
	return errs
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (v *validator) checkNumber(f float64, val any, s *schema.Schema, path []string) []ValidationError {
	var errs []ValidationError
	if m := s.Minimum; m != nil {
		if s.ExclusiveMinimum && f <= *m {
			errs = append(errs, v.fail(s, KindBounds, path, val, "%s is less than or equal to exclusive minimum %s", formatNumber(f), formatNumber(*m)))
		} else if f < *m {
			errs = append(errs, v.fail(s, KindBounds, path, val, "%s is less than minimum %s", formatNumber(f), formatNumber(*m)))
		}
	}
	if m := s.Maximum; m != nil {
		if s.ExclusiveMaximum && f >= *m {
			errs = append(errs, v.fail(s, KindBounds, path, val, "%s is greater than or equal to exclusive maximum %s", formatNumber(f), formatNumber(*m)))
		} else if f > *m {
			errs = append(errs, v.fail(s, KindBounds, path, val, "%s is greater than maximum %s", formatNumber(f), formatNumber(*m)))
		}
	}
	if m := s.MultipleOf; m != nil && !isMultiple(val, *m) {
		errs = append(errs, v.fail(s, KindMultipleOf, path, val, "%s is not a multiple of %s", formatNumber(f), formatNumber(*m)))
	}
	if err := checkFormat(s, val); err != nil {
		errs = append(errs, v.fail(s, KindFormat, path, val, "%s: %v", s.Format, err))
	}
	return errs
}

func isMultiple(val any, m float64) bool {
	if i, ok := val.(int64); ok && m == math.Trunc(m) && m < math.MaxInt64 {
		return i%int64(m) == 0
	}
	var f float64
	switch x := val.(type) {
	case int64:
		f = float64(x)
	case float64:
		f = x
	}
	q := f / m
	return math.Abs(q-math.Round(q)) <= 1e-9
}

func (v *validator) checkArray(x []any, s *schema.Schema, path []string) ([]any, []ValidationError) {
	var errs []ValidationError
	n := int64(len(x))
	if s.MinItems != nil && n < *s.MinItems {
		errs = append(errs, v.fail(s, KindItems, path, nil, "array has %d items, fewer than minItems %d", n, *s.MinItems))
	}
	if s.MaxItems != nil && n > *s.MaxItems {
		errs = append(errs, v.fail(s, KindItems, path, nil, "array has %d items, more than maxItems %d", n, *s.MaxItems))
	}
	if s.UniqueItems {
		seen := make(map[string]int, len(x))
		for i, item := range x {
			c := Canonical(item)
			if first, dup := seen[c]; dup {
				errs = append(errs, v.fail(s, KindUniqueItems, pathutil.Append(path, pathutil.Index(i)), nil, "duplicates item %d", first))
				continue
			}
			seen[c] = i
		}
	}

	out := make([]any, len(x))
	for i, item := range x {
		if s.Items == nil {
			out[i] = item
			continue
		}
		cv, itemErrs := v.convert(item, s.Items, pathutil.Append(path, pathutil.Index(i)))
		out[i] = cv
		errs = append(errs, itemErrs...)
	}
	return out, errs
}

func (v *validator) checkObject(x map[string]any, s *schema.Schema, path []string) (map[string]any, []ValidationError) {
	var errs []ValidationError
	out := make(map[string]any, len(x))

	n := int64(len(x))
	if s.MinProperties != nil && n < *s.MinProperties {
		errs = append(errs, v.fail(s, KindProperties, path, nil, "object has %d properties, fewer than minProperties %d", n, *s.MinProperties))
	}
	if s.MaxProperties != nil && n > *s.MaxProperties {
		errs = append(errs, v.fail(s, KindProperties, path, nil, "object has %d properties, more than maxProperties %d", n, *s.MaxProperties))
	}

	for _, name := range s.Required {
		if _, present := x[name]; present {
			continue
		}
		if ps := s.Properties[name]; ps != nil && v.skipsProperty(ps) {
			continue
		}
		errs = append(errs, v.fail(nil, KindRequired, pathutil.Append(path, name), nil, "missing required property %q", name))
	}

	for _, name := range s.PropertyOrder {
		ps := s.Properties[name]
		raw, present := x[name]
		if !present {
			if v.dir == Request && ps.HasDefault && !ps.ReadOnly {
				out[name] = defaultValue(ps, v.dir)
			}
			continue
		}
		childPath := pathutil.Append(path, name)
		switch {
		case v.dir == Request && ps.ReadOnly:
			errs = append(errs, v.fail(ps, KindReadOnly, childPath, nil, "property %q is read-only and not allowed in requests", name))
			continue
		case v.dir == Response && ps.WriteOnly:
			errs = append(errs, v.fail(ps, KindWriteOnly, childPath, nil, "property %q is write-only and not allowed in responses", name))
			continue
		}
		cv, childErrs := v.convert(raw, ps, childPath)
		out[name] = cv
		errs = append(errs, childErrs...)
	}

	// Remaining keys in sorted order so errors are deterministic.
	extra := make([]string, 0, len(x))
	for name := range x {
		if _, declared := s.Properties[name]; !declared {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		raw := x[name]
		childPath := pathutil.Append(path, name)
		matched := false
		for _, pp := range s.PatternProperties {
			if !pp.Pattern.MatchString(name) {
				continue
			}
			matched = true
			cv, childErrs := v.convert(raw, pp.Schema, childPath)
			out[name] = cv
			errs = append(errs, childErrs...)
		}
		if matched {
			continue
		}
		switch s.Additional {
		case schema.AdditionalForbidden:
			errs = append(errs, v.fail(nil, KindAdditionalProperties, childPath, nil, "additional property %q is not allowed", name))
		case schema.AdditionalSchema:
			cv, childErrs := v.convert(raw, s.AdditionalSchema, childPath)
			out[name] = cv
			errs = append(errs, childErrs...)
		default:
			out[name] = raw
		}
	}
	return out, errs
}

// skipsProperty reports whether a property is excluded from required checks
// in the current direction.
func (v *validator) skipsProperty(ps *schema.Schema) bool {
	return (v.dir == Request && ps.ReadOnly) || (v.dir == Response && ps.WriteOnly)
}

func (v *validator) composition(val any, s *schema.Schema, path []string) (any, []ValidationError) {
	c := s.Composition
	var errs []ValidationError
	if c.Base != nil {
		val, errs = v.convert(val, c.Base, path)
		if len(errs) > 0 {
			return val, errs
		}
	}

	if s.Discriminator != nil && !s.Discriminator.Polymorphic {
		return v.discriminated(val, s, path)
	}

	switch c.Kind {
	case schema.AllOf:
		cur := val
		for _, b := range c.Branches {
			cv, branchErrs := v.check(cur, b, path, false)
			if len(branchErrs) > 0 {
				errs = append(errs, branchErrs...)
				continue
			}
			cur = cv
		}
		return cur, errs

	case schema.OneOf:
		var matched []int
		var out any
		branchErrs := make([][]ValidationError, len(c.Branches))
		for i, b := range c.Branches {
			cv, e := v.convert(val, b, path)
			if len(e) == 0 {
				if len(matched) == 0 {
					out = cv
				}
				matched = append(matched, i)
				continue
			}
			branchErrs[i] = e
		}
		switch len(matched) {
		case 1:
			return out, nil
		case 0:
			e := v.fail(s, KindAmbiguousMatch, path, nil, "value does not match any oneOf branch")
			e.Branches = branchErrs
			return val, []ValidationError{e}
		default:
			return val, []ValidationError{v.fail(s, KindAmbiguousMatch, path, nil,
				"value matches %d oneOf branches %v, exactly one is required", len(matched), matched)}
		}

	case schema.AnyOf:
		branchErrs := make([][]ValidationError, len(c.Branches))
		for i, b := range c.Branches {
			cv, e := v.convert(val, b, path)
			if len(e) == 0 {
				return cv, nil
			}
			branchErrs[i] = e
		}
		e := v.fail(s, KindAmbiguousMatch, path, nil, "value does not match any anyOf branch")
		e.Branches = branchErrs
		return val, []ValidationError{e}

	case schema.Not:
		if len(c.Branches) > 0 && len(v.errorsOnly(val, c.Branches[0])) == 0 {
			return val, []ValidationError{v.fail(s, KindComposition, path, nil, "value must not match the schema at %s", c.Branches[0].Pointer)}
		}
		return val, nil
	}
	return val, nil
}

// errorsOnly validates without converting, for not.
func (v *validator) errorsOnly(val any, s *schema.Schema) []ValidationError {
	_, errs := v.convert(val, s, nil)
	return errs
}

// discriminated checks only the branch selected by the discriminator value.
func (v *validator) discriminated(val any, s *schema.Schema, path []string) (any, []ValidationError) {
	d := s.Discriminator
	obj, ok := val.(map[string]any)
	if !ok {
		return val, []ValidationError{v.fail(s, KindType, path, val, "expected object with discriminator %q, got %s", d.PropertyName, typeName(val))}
	}
	propPath := pathutil.Append(path, d.PropertyName)
	raw, present := obj[d.PropertyName]
	if !present {
		return val, []ValidationError{v.fail(nil, KindDiscriminator, propPath, nil, "missing discriminator property %q", d.PropertyName)}
	}
	name, ok := raw.(string)
	if !ok {
		return val, []ValidationError{v.fail(nil, KindDiscriminator, propPath, nil, "discriminator property %q must be a string", d.PropertyName)}
	}
	target, ok := d.Mapping[name]
	if !ok {
		keys := make([]string, 0, len(d.Mapping))
		for k := range d.Mapping {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return val, []ValidationError{v.fail(nil, KindDiscriminator, propPath, name,
			"unknown discriminator value %q (expected one of %s)", name, strings.Join(keys, ", "))}
	}
	if target == s {
		return v.check(val, s, path, false)
	}
	return v.convert(val, target, path)
}
