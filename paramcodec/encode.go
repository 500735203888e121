package paramcodec

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/erraggy/oasbind/internal/httputil"
	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/validate"
)

// Encode serializes value according to the style of p. It is the inverse
// of Decode: encoding a decoded value and decoding it again yields the same
// value. A nil value encodes to no entries, or a missing_parameter error
// when p is required. Object keys follow the schema's property order, with
// undeclared keys appended in sorted order.
func Encode(value any, p *Parameter) (Values, []ValidationError) {
	v, ok := validate.Normalize(value)
	if !ok {
		return nil, p.formatError("cannot encode value of Go type %T", value)
	}
	if v == nil {
		if p.required() {
			return nil, []ValidationError{p.issue(issues.KindMissingParameter, "missing required %s parameter %q", p.In, p.Name)}
		}
		return Values{}, nil
	}

	if p.ContentType != "" {
		return encodeContent(v, p)
	}

	style := p.style()
	if style == StyleDeepObject {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, p.formatError("deepObject style requires an object value")
		}
		out := Values{}
		if errs := encodeDeep(out, p, p.Name, obj); len(errs) > 0 {
			return nil, errs
		}
		return out, nil
	}

	switch x := v.(type) {
	case []any:
		toks, errs := scalars(p, x)
		if len(errs) > 0 {
			return nil, errs
		}
		return encodeArray(p, style, toks), nil
	case map[string]any:
		keys := orderedKeys(x, p)
		vals := make([]string, len(keys))
		for i, k := range keys {
			s, ok := scalar(x[k])
			if !ok {
				return nil, p.formatError("property %q cannot be encoded in %s style", k, style)
			}
			vals[i] = s
		}
		return encodeObject(p, style, keys, vals), nil
	default:
		s, ok := scalar(x)
		if !ok {
			return nil, p.formatError("cannot encode value of Go type %T", value)
		}
		return encodePrimitive(p, style, s), nil
	}
}

func encodePrimitive(p *Parameter, style Style, s string) Values {
	switch style {
	case StyleLabel:
		s = "." + s
	case StyleMatrix:
		s = ";" + p.Name + "=" + s
	}
	return Values{p.Name: {s}}
}

func encodeArray(p *Parameter, style Style, toks []string) Values {
	explode := p.explode()
	switch style {
	case StyleLabel:
		if explode {
			return Values{p.Name: {"." + strings.Join(toks, ".")}}
		}
		return Values{p.Name: {"." + strings.Join(toks, ",")}}
	case StyleMatrix:
		if explode {
			var b strings.Builder
			for _, t := range toks {
				b.WriteString(";" + p.Name + "=" + t)
			}
			if len(toks) == 0 {
				b.WriteString(";" + p.Name)
			}
			return Values{p.Name: {b.String()}}
		}
		return Values{p.Name: {";" + p.Name + "=" + strings.Join(toks, ",")}}
	case StyleForm, StyleSpaceDelimited, StylePipeDelimited:
		if explode {
			if len(toks) == 0 {
				return Values{p.Name: {""}}
			}
			return Values{p.Name: slices.Clone(toks)}
		}
		return Values{p.Name: {strings.Join(toks, delimiter(style))}}
	default:
		return Values{p.Name: {strings.Join(toks, ",")}}
	}
}

func encodeObject(p *Parameter, style Style, keys, vals []string) Values {
	explode := p.explode()
	flat := make([]string, 0, 2*len(keys))
	assigned := make([]string, len(keys))
	for i, k := range keys {
		flat = append(flat, k, vals[i])
		assigned[i] = k + "=" + vals[i]
	}

	switch style {
	case StyleLabel:
		if explode {
			return Values{p.Name: {"." + strings.Join(assigned, ".")}}
		}
		return Values{p.Name: {"." + strings.Join(flat, ",")}}
	case StyleMatrix:
		if explode {
			var b strings.Builder
			for _, a := range assigned {
				b.WriteString(";" + a)
			}
			return Values{p.Name: {b.String()}}
		}
		return Values{p.Name: {";" + p.Name + "=" + strings.Join(flat, ",")}}
	case StyleForm, StyleSpaceDelimited, StylePipeDelimited:
		if explode && style == StyleForm {
			out := make(Values, len(keys))
			for i, k := range keys {
				out[k] = []string{vals[i]}
			}
			return out
		}
		return Values{p.Name: {strings.Join(flat, delimiter(style))}}
	default:
		if explode {
			return Values{p.Name: {strings.Join(assigned, ",")}}
		}
		return Values{p.Name: {strings.Join(flat, ",")}}
	}
}

// encodeDeep writes obj as prefix[k]=v entries, recursing into nested objects.
func encodeDeep(out Values, p *Parameter, prefix string, obj map[string]any) []ValidationError {
	for _, k := range sortedKeys(obj) {
		key := prefix + "[" + k + "]"
		v, _ := validate.Normalize(obj[k])
		switch x := v.(type) {
		case map[string]any:
			if errs := encodeDeep(out, p, key, x); len(errs) > 0 {
				return errs
			}
		case []any:
			toks, errs := scalars(p, x)
			if len(errs) > 0 {
				return errs
			}
			out[key] = toks
		default:
			s, ok := scalar(x)
			if !ok {
				return p.formatError("property %q cannot be encoded in deepObject style", k)
			}
			out[key] = []string{s}
		}
	}
	return nil
}

func encodeContent(v any, p *Parameter) (Values, []ValidationError) {
	if !httputil.IsJSON(p.ContentType) {
		s, ok := scalar(v)
		if !ok {
			return nil, p.formatError("cannot encode %s value of Go type %T", p.ContentType, v)
		}
		return Values{p.Name: {s}}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, p.formatError("cannot encode %s value: %v", p.ContentType, err)
	}
	return Values{p.Name: {string(data)}}, nil
}

func scalars(p *Parameter, list []any) ([]string, []ValidationError) {
	toks := make([]string, len(list))
	for i, item := range list {
		s, ok := scalar(item)
		if !ok {
			return nil, p.formatError("item %d cannot be encoded in %s style", i, p.style())
		}
		toks[i] = s
	}
	return toks, nil
}

// scalar formats a primitive value; ok is false for arrays and objects.
func scalar(v any) (string, bool) {
	n, ok := validate.Normalize(v)
	if !ok {
		return "", false
	}
	switch x := n.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case []byte:
		return string(x), true
	case bool:
		return strconv.FormatBool(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

func orderedKeys(obj map[string]any, p *Parameter) []string {
	keys := make([]string, 0, len(obj))
	for _, k := range p.Schema.DeclaredProperties() {
		if _, ok := obj[k]; ok {
			keys = append(keys, k)
		}
	}
	for _, k := range sortedKeys(obj) {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
