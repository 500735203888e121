package paramcodec

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/erraggy/oasbind/internal/httputil"
	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/schema"
	"github.com/erraggy/oasbind/validate"
)

// Decode extracts, shapes, coerces and converts the value of p from src.
//
// For path and cookie parameters src holds the single raw value under the
// parameter name; for query and header parameters it holds the full query
// or header set. Validation runs in the request direction unless opts
// override it. An absent optional parameter decodes to its schema default,
// or nil when there is none.
func Decode(src Values, p *Parameter, opts ...validate.Option) (any, []ValidationError) {
	raw, present, errs := Parse(src, p)
	if len(errs) > 0 {
		return nil, errs
	}
	all := make([]validate.Option, 0, len(opts)+2)
	all = append(all, validate.WithDirection(validate.Request), validate.WithLocation(p.In, p.Name))
	all = append(all, opts...)

	if !present {
		if p.required() {
			return nil, []ValidationError{p.issue(issues.KindMissingParameter, "missing required %s parameter %q", p.In, p.Name)}
		}
		if p.Schema != nil && p.Schema.HasDefault {
			return validate.DefaultValue(p.Schema, all...), nil
		}
		return nil, nil
	}
	return validate.Convert(raw, p.Schema, all...)
}

// Present reports whether src carries a value for p.
func Present(src Values, p *Parameter) bool {
	_, present, _ := Parse(src, p)
	return present
}

// Parse extracts, shapes and coerces the value of p without validating it.
// present is false when src carries no value for p.
func Parse(src Values, p *Parameter) (value any, present bool, errs []ValidationError) {
	if p.ContentType != "" {
		return parseContent(src, p)
	}

	sh := shapeOf(p.Schema)
	style := p.style()
	switch style {
	case StyleDeepObject:
		value, present, errs = parseDeepObject(src, p)
	case StyleForm, StyleSpaceDelimited, StylePipeDelimited:
		if style == StyleForm && sh == shapeObject && p.explode() {
			value, present = formObject(src, p)
			break
		}
		var vals []string
		if vals, present = lookup(src, p); !present {
			break
		}
		value, errs = shapeList(p, vals, delimiter(style), sh)
	case StyleSimple, StyleLabel, StyleMatrix:
		var raw string
		if raw, present = single(src, p); !present {
			break
		}
		switch style {
		case StyleSimple:
			value, errs = parseSimple(p, raw, sh)
		case StyleLabel:
			value, errs = parseLabel(p, raw, sh)
		default:
			value, errs = parseMatrix(p, raw, sh)
		}
	default:
		return nil, false, p.formatError("unsupported style %q", style)
	}

	if !present || len(errs) > 0 {
		return nil, present, errs
	}
	if p.AllowEmptyValue != nil && !*p.AllowEmptyValue && isEmpty(value) {
		return nil, true, p.formatError("empty value is not allowed")
	}
	return Coerce(value, p.Schema), true, nil
}

// Coerce converts strings inside v into int64, float64 or bool where the
// schema asks for them. Strings that do not parse are left unchanged.
func Coerce(v any, s *schema.Schema) any {
	if s == nil {
		return v
	}
	switch x := v.(type) {
	case string:
		return coerceScalar(x, s)
	case []any:
		item := s.ItemSchema()
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Coerce(e, item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Coerce(e, s.PropertySchema(k))
		}
		return out
	}
	return v
}

func coerceScalar(raw string, s *schema.Schema) any {
	switch s.EffectiveType() {
	case schema.TypeInteger:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
	case schema.TypeNumber:
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	case schema.TypeBoolean:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

// lookup returns the raw values of p. Header names match case-insensitively
// and repeated header lines are joined with commas.
func lookup(src Values, p *Parameter) ([]string, bool) {
	if p.In != issues.InHeader {
		vals, ok := src[p.Name]
		return vals, ok
	}
	var keys []string
	for k := range src {
		if strings.EqualFold(k, p.Name) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false
	}
	slices.Sort(keys)
	var vals []string
	for _, k := range keys {
		vals = append(vals, src[k]...)
	}
	return []string{strings.Join(vals, ",")}, true
}

func single(src Values, p *Parameter) (string, bool) {
	vals, ok := lookup(src, p)
	if !ok || len(vals) == 0 {
		return "", ok
	}
	return vals[0], true
}

func delimiter(style Style) string {
	switch style {
	case StyleSpaceDelimited:
		return " "
	case StylePipeDelimited:
		return "|"
	default:
		return ","
	}
}

// split splits raw on sep; an empty raw yields no tokens.
func split(p *Parameter, raw, sep string) []string {
	if raw == "" {
		return nil
	}
	toks := strings.Split(raw, sep)
	if p.In == issues.InHeader {
		for i, t := range toks {
			toks[i] = strings.TrimSpace(t)
		}
	}
	return toks
}

func items(toks []string) []any {
	out := make([]any, len(toks))
	for i, t := range toks {
		out[i] = t
	}
	return out
}

// pairs builds an object from k,v,k,v tokens.
func pairs(p *Parameter, toks []string) (any, []ValidationError) {
	if len(toks)%2 != 0 {
		return nil, p.formatError("expected key,value pairs, got %d tokens", len(toks))
	}
	out := make(map[string]any, len(toks)/2)
	for i := 0; i < len(toks); i += 2 {
		out[toks[i]] = toks[i+1]
	}
	return out, nil
}

// assignments builds an object from k=v tokens.
func assignments(p *Parameter, toks []string) (any, []ValidationError) {
	out := make(map[string]any, len(toks))
	for _, t := range toks {
		if t == "" {
			continue
		}
		k, v, ok := strings.Cut(t, "=")
		if !ok || k == "" {
			return nil, p.formatError("expected key=value, got %q", t)
		}
		out[k] = v
	}
	return out, nil
}

func parseSimple(p *Parameter, raw string, sh shape) (any, []ValidationError) {
	switch sh {
	case shapeArray:
		return items(split(p, raw, ",")), nil
	case shapeObject:
		if p.explode() {
			return assignments(p, split(p, raw, ","))
		}
		return pairs(p, split(p, raw, ","))
	}
	if p.In == issues.InHeader {
		raw = strings.TrimSpace(raw)
	}
	return raw, nil
}

func parseLabel(p *Parameter, raw string, sh shape) (any, []ValidationError) {
	body, ok := strings.CutPrefix(raw, ".")
	if !ok {
		return nil, p.formatError("label value must start with \".\"")
	}
	switch sh {
	case shapeArray:
		if p.explode() {
			return items(split(p, body, ".")), nil
		}
		return items(split(p, body, ",")), nil
	case shapeObject:
		if p.explode() {
			return assignments(p, split(p, body, "."))
		}
		return pairs(p, split(p, body, ","))
	}
	return body, nil
}

func parseMatrix(p *Parameter, raw string, sh shape) (any, []ValidationError) {
	body, ok := strings.CutPrefix(raw, ";")
	if !ok {
		return nil, p.formatError("matrix value must start with \";\"")
	}
	if p.explode() {
		switch sh {
		case shapeObject:
			return assignments(p, split(p, body, ";"))
		case shapeArray:
			parts := split(p, body, ";")
			vals := make([]string, 0, len(parts))
			for _, part := range parts {
				v, ok := matrixValue(p, part)
				if !ok {
					return nil, p.formatError("matrix value must be of the form ;%s=value", p.Name)
				}
				vals = append(vals, v)
			}
			if len(vals) == 1 && vals[0] == "" {
				return []any{}, nil
			}
			return items(vals), nil
		}
	}

	v, ok := matrixValue(p, body)
	if !ok {
		return nil, p.formatError("matrix value must be of the form ;%s=value", p.Name)
	}
	switch sh {
	case shapeArray:
		return items(split(p, v, ",")), nil
	case shapeObject:
		return pairs(p, split(p, v, ","))
	}
	return v, nil
}

func matrixValue(p *Parameter, part string) (string, bool) {
	if part == p.Name {
		return "", true
	}
	return strings.CutPrefix(part, p.Name+"=")
}

// shapeList shapes the values of a form or delimited parameter.
func shapeList(p *Parameter, vals []string, sep string, sh shape) (any, []ValidationError) {
	switch sh {
	case shapeArray:
		if p.explode() {
			if len(vals) == 1 && vals[0] == "" {
				return []any{}, nil
			}
			return items(vals), nil
		}
		var toks []string
		for _, v := range vals {
			toks = append(toks, split(p, v, sep)...)
		}
		return items(toks), nil
	case shapeObject:
		if len(vals) == 0 {
			return map[string]any{}, nil
		}
		return pairs(p, split(p, vals[0], sep))
	}
	if len(vals) == 0 {
		return "", nil
	}
	return vals[0], nil
}

// formObject assembles an exploded form object from the declared
// properties of its schema, or from every key when none are declared.
func formObject(src Values, p *Parameter) (any, bool) {
	names := p.Schema.DeclaredProperties()
	if len(names) == 0 {
		for k := range src {
			names = append(names, k)
		}
	}
	out := make(map[string]any)
	for _, name := range names {
		vals, ok := src[name]
		if !ok || len(vals) == 0 {
			continue
		}
		if shapeOf(p.Schema.PropertySchema(name)) == shapeArray {
			out[name] = items(vals)
		} else {
			out[name] = vals[0]
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// parseDeepObject assembles n[k]=v and n[k][j]=v keys into nested objects.
func parseDeepObject(src Values, p *Parameter) (any, bool, []ValidationError) {
	prefix := p.Name + "["
	var keys []string
	for k := range src {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, false, nil
	}
	slices.Sort(keys)

	out := make(map[string]any)
	for _, key := range keys {
		segs, ok := bracketPath(key[len(p.Name):])
		if !ok {
			return nil, true, p.formatError("malformed deepObject key %q", key)
		}
		s := p.Schema
		for _, seg := range segs {
			s = s.PropertySchema(seg)
		}
		vals := src[key]
		var leaf any
		switch {
		case shapeOf(s) == shapeArray:
			leaf = items(vals)
		case len(vals) > 0:
			leaf = vals[0]
		default:
			leaf = ""
		}
		if !setPath(out, segs, leaf) {
			return nil, true, p.formatError("conflicting deepObject key %q", key)
		}
	}
	return out, true, nil
}

// bracketPath splits "[a][b]" into its segments.
func bracketPath(s string) ([]string, bool) {
	var segs []string
	for s != "" {
		if s[0] != '[' {
			return nil, false
		}
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, false
		}
		seg := s[1:end]
		if strings.ContainsRune(seg, '[') {
			return nil, false
		}
		segs = append(segs, seg)
		s = s[end+1:]
	}
	return segs, len(segs) > 0
}

func setPath(m map[string]any, segs []string, v any) bool {
	for _, seg := range segs[:len(segs)-1] {
		next, exists := m[seg]
		if !exists {
			child := make(map[string]any)
			m[seg] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return false
		}
		m = child
	}
	last := segs[len(segs)-1]
	if _, exists := m[last]; exists {
		return false
	}
	m[last] = v
	return true
}

// parseContent decodes a content-typed parameter.
func parseContent(src Values, p *Parameter) (any, bool, []ValidationError) {
	raw, ok := single(src, p)
	if !ok {
		return nil, false, nil
	}
	if !httputil.IsJSON(p.ContentType) {
		return raw, true, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, true, p.formatError("invalid %s value: %v", p.ContentType, err)
	}
	if dec.More() {
		return nil, true, p.formatError("invalid %s value: trailing data", p.ContentType)
	}
	return v, true, nil
}
