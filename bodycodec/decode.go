package bodycodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/url"
	"slices"
	"strings"

	"github.com/erraggy/oasbind/internal/httputil"
	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/paramcodec"
	"github.com/erraggy/oasbind/schema"
	"github.com/erraggy/oasbind/validate"
)

// defaultContentType applies to bodies sent without a Content-Type.
const defaultContentType = "application/octet-stream"

// Decode selects the binding for contentType, decodes raw and converts the
// result against the binding's schema in direction dir. The selected
// binding is returned even when errors are reported.
func Decode(raw []byte, contentType string, bindings Bindings, dir validate.Direction) (any, *MediaTypeBinding, []ValidationError) {
	in := location(dir)
	if strings.TrimSpace(contentType) == "" {
		contentType = defaultContentType
	}
	b := bindings.Select(contentType)
	if b == nil {
		return nil, nil, []ValidationError{bodyIssue(in, issues.KindUnsupportedMediaType, nil,
			"content type %q is not declared (expected one of %s)", contentType, strings.Join(bindings.ContentTypes(), ", "))}
	}

	mt, params := httputil.ParseMediaType(contentType)
	opts := []validate.Option{validate.WithDirection(dir), validate.WithLocation(in, "")}

	var value any
	switch {
	case httputil.IsMultipart(mt):
		obj, errs := decodeMultipart(raw, params["boundary"], b, in)
		if len(errs) > 0 {
			return nil, b, errs
		}
		value = obj
	default:
		data, err := toUTF8(raw, params["charset"])
		if err != nil {
			return nil, b, []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "%v", err)}
		}
		switch {
		case httputil.IsJSON(mt):
			v, err := decodeJSON(data)
			if err != nil {
				return nil, b, []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "invalid JSON body: %v", err)}
			}
			value = v
		case httputil.IsForm(mt):
			obj, errs := decodeForm(data, b, in)
			if len(errs) > 0 {
				return nil, b, errs
			}
			value = obj
		case httputil.IsText(mt):
			value = string(data)
		default:
			value = raw
		}
	}

	out, errs := validate.Convert(value, b.Schema, opts...)
	return out, b, errs
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the JSON value")
	}
	return v, nil
}

// decodeForm decodes each declared property like a query parameter and
// keeps undeclared keys so that additionalProperties applies to them.
func decodeForm(data []byte, b *MediaTypeBinding, in string) (map[string]any, []ValidationError) {
	q, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "invalid form body: %v", err)}
	}
	src := paramcodec.Values(q)

	out := make(map[string]any, len(q))
	var errs []ValidationError
	names := b.Schema.DeclaredProperties()
	for _, name := range names {
		v, present, perrs := paramcodec.Parse(src, propertyParam(b, name))
		if len(perrs) > 0 {
			errs = append(errs, relocate(perrs, in, name)...)
			continue
		}
		if present {
			out[name] = v
		}
	}

	for key, vals := range q {
		if slices.Contains(names, key) {
			continue
		}
		var v any
		if len(vals) == 1 {
			v = vals[0]
		} else {
			v = stringsToAny(vals)
		}
		out[key] = paramcodec.Coerce(v, b.Schema.PropertySchema(key))
	}
	return out, errs
}

func stringsToAny(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// decodeMultipart reads one value per part. Parts of array properties
// accumulate; repeated parts of other properties are collected into an
// array so that the validator reports them.
func decodeMultipart(raw []byte, boundary string, b *MediaTypeBinding, in string) (map[string]any, []ValidationError) {
	if boundary == "" {
		return nil, []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "multipart body without boundary")}
	}
	mr := multipart.NewReader(bytes.NewReader(raw), boundary)

	out := make(map[string]any)
	repeated := make(map[string]bool)
	var errs []ValidationError
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, append(errs, bodyIssue(in, issues.KindBodyFormat, nil, "invalid multipart body: %v", err))
		}
		name := part.FormName()
		if name == "" {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, append(errs, bodyIssue(in, issues.KindBodyFormat, []string{name}, "cannot read part: %v", err))
		}

		ps := b.Schema.PropertySchema(name)
		item := ps
		isArray := ps.EffectiveType() == schema.TypeArray
		if isArray {
			item = ps.ItemSchema()
		}

		partType := part.Header.Get("Content-Type")
		if partType == "" {
			partType = "text/plain"
			if part.FileName() != "" {
				partType = defaultContentType
			}
		}
		enc := b.Encoding[name]
		if !partAllowed(partType, enc, item) {
			errs = append(errs, bodyIssue(in, issues.KindUnsupportedMediaType, []string{name},
				"part content type %q is not allowed (expected %s)", partType, strings.Join(allowedPartTypes(enc, item), ", ")))
			continue
		}
		if enc != nil {
			errs = append(errs, decodePartHeaders(part, name, enc, in)...)
		}

		v, err := partValue(data, partType, part.FileName() != "", item)
		if err != nil {
			errs = append(errs, bodyIssue(in, issues.KindBodyFormat, []string{name}, "%v", err))
			continue
		}

		prev, seen := out[name]
		switch {
		case isArray && !seen:
			out[name] = []any{v}
		case isArray || repeated[name]:
			out[name] = append(prev.([]any), v)
		case seen:
			out[name] = []any{prev, v}
			repeated[name] = true
		default:
			out[name] = v
		}
	}
	return out, errs
}

func decodePartHeaders(part *multipart.Part, name string, enc *Encoding, in string) []ValidationError {
	headerNames := make([]string, 0, len(enc.Headers))
	for h := range enc.Headers {
		headerNames = append(headerNames, h)
	}
	slices.Sort(headerNames)

	var errs []ValidationError
	for _, h := range headerNames {
		if strings.EqualFold(h, "Content-Type") {
			continue
		}
		_, herrs := paramcodec.Decode(paramcodec.Values(part.Header), enc.Headers[h])
		for i := range herrs {
			herrs[i].In = in
			herrs[i].Name = h
			herrs[i].Path = append([]string{name}, herrs[i].Path...)
		}
		errs = append(errs, herrs...)
	}
	return errs
}

// partValue converts the bytes of one part: JSON parts are decoded, binary
// and untyped file parts stay bytes, everything else is text.
func partValue(data []byte, partType string, isFile bool, s *schema.Schema) (any, error) {
	mt, params := httputil.ParseMediaType(partType)
	if httputil.IsJSON(mt) {
		v, err := decodeJSON(data)
		if err != nil {
			return nil, errors.New("invalid JSON part: " + err.Error())
		}
		return v, nil
	}
	if s.IsBinary() || (isFile && s.EffectiveType() == "") {
		return data, nil
	}
	text, err := toUTF8(data, params["charset"])
	if err != nil {
		return nil, err
	}
	return paramcodec.Coerce(string(text), s), nil
}

// allowedPartTypes returns the media types a part may carry.
func allowedPartTypes(enc *Encoding, s *schema.Schema) []string {
	if enc != nil && enc.ContentType != "" {
		var out []string
		for _, ct := range strings.Split(enc.ContentType, ",") {
			if ct = strings.TrimSpace(ct); ct != "" {
				out = append(out, ct)
			}
		}
		return out
	}
	switch {
	case s == nil, s.IsBinary():
		return []string{"*/*"}
	case s.EffectiveType() == schema.TypeObject:
		return []string{"application/json"}
	case s.EffectiveType() == schema.TypeArray:
		if s.ItemSchema().EffectiveType() == schema.TypeObject {
			return []string{"application/json"}
		}
		return []string{"text/plain"}
	case s.EffectiveType() == "":
		return []string{"*/*"}
	default:
		return []string{"text/plain"}
	}
}

func partAllowed(partType string, enc *Encoding, s *schema.Schema) bool {
	for _, pattern := range allowedPartTypes(enc, s) {
		if httputil.MatchMediaType(pattern, partType) {
			return true
		}
	}
	return false
}
