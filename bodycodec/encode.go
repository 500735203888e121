package bodycodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/erraggy/oasbind/internal/httputil"
	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/paramcodec"
	"github.com/erraggy/oasbind/schema"
	"github.com/erraggy/oasbind/validate"
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Encode serializes a converted response value. An empty contentType
// selects the first declared binding. The concrete content type written is
// returned; multipart bodies carry their boundary in it. A wildcard binding
// requires the caller to name a concrete content type.
func Encode(value any, contentType string, bindings Bindings) ([]byte, string, []ValidationError) {
	in := issues.InResponse
	if contentType == "" {
		if len(bindings) == 0 {
			return nil, "", []ValidationError{bodyIssue(in, issues.KindUnsupportedMediaType, nil, "no content is declared")}
		}
		contentType = bindings[0].ContentType
	}
	if httputil.IsWildcard(contentType) {
		return nil, "", []ValidationError{bodyIssue(in, issues.KindUnsupportedMediaType, nil,
			"a concrete content type is required for %q", contentType)}
	}
	b := bindings.Select(contentType)
	if b == nil {
		return nil, "", []ValidationError{bodyIssue(in, issues.KindUnsupportedMediaType, nil,
			"content type %q is not declared (expected one of %s)", contentType, strings.Join(bindings.ContentTypes(), ", "))}
	}

	mt, params := httputil.ParseMediaType(contentType)
	var data []byte
	switch {
	case httputil.IsJSON(mt):
		out, err := json.Marshal(value)
		if err != nil {
			return nil, "", []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "cannot encode JSON body: %v", err)}
		}
		data = out
	case httputil.IsForm(mt):
		out, errs := encodeForm(value, b, in)
		if len(errs) > 0 {
			return nil, "", errs
		}
		data = out
	case httputil.IsMultipart(mt):
		return encodeMultipart(value, b, in)
	case httputil.IsText(mt):
		s, ok := textValue(value)
		if !ok {
			return nil, "", []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "cannot encode %T as text", value)}
		}
		data = []byte(s)
	default:
		switch x := value.(type) {
		case []byte:
			return x, contentType, nil
		case string:
			return []byte(x), contentType, nil
		}
		return nil, "", []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "binary body requires []byte or string, got %T", value)}
	}

	out, err := fromUTF8(data, params["charset"])
	if err != nil {
		return nil, "", []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "%v", err)}
	}
	return out, contentType, nil
}

func encodeForm(value any, b *MediaTypeBinding, in string) ([]byte, []ValidationError) {
	obj, ok := asObject(value)
	if !ok {
		return nil, []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "form body requires an object, got %T", value)}
	}
	q := url.Values{}
	var errs []ValidationError
	for _, name := range orderedKeys(obj, b.Schema) {
		vals, perrs := paramcodec.Encode(obj[name], propertyParam(b, name))
		if len(perrs) > 0 {
			errs = append(errs, relocate(perrs, in, name)...)
			continue
		}
		for k, v := range vals {
			q[k] = append(q[k], v...)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return []byte(q.Encode()), nil
}

func encodeMultipart(value any, b *MediaTypeBinding, in string) ([]byte, string, []ValidationError) {
	obj, ok := asObject(value)
	if !ok {
		return nil, "", []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "multipart body requires an object, got %T", value)}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range orderedKeys(obj, b.Schema) {
		ps := b.Schema.PropertySchema(name)
		parts := []any{obj[name]}
		if list, ok := obj[name].([]any); ok && ps.EffectiveType() == schema.TypeArray && ps.ItemSchema().EffectiveType() != schema.TypeObject {
			parts = list
		}
		for _, v := range parts {
			partType, data, err := partBody(v, b.Encoding[name])
			if err != nil {
				return nil, "", []ValidationError{bodyIssue(in, issues.KindBodyFormat, []string{name}, "%v", err)}
			}
			h := textproto.MIMEHeader{}
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(name)))
			h.Set("Content-Type", partType)
			pw, err := w.CreatePart(h)
			if err != nil {
				return nil, "", []ValidationError{bodyIssue(in, issues.KindBodyFormat, []string{name}, "%v", err)}
			}
			if _, err := pw.Write(data); err != nil {
				return nil, "", []ValidationError{bodyIssue(in, issues.KindBodyFormat, []string{name}, "%v", err)}
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", []ValidationError{bodyIssue(in, issues.KindBodyFormat, nil, "%v", err)}
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// partBody picks the content type of one part and serializes its value.
func partBody(v any, enc *Encoding) (string, []byte, error) {
	partType := ""
	if enc != nil && enc.ContentType != "" {
		first, _, _ := strings.Cut(enc.ContentType, ",")
		if first = strings.TrimSpace(first); !httputil.IsWildcard(first) {
			partType = first
		}
	}
	if partType == "" {
		switch v.(type) {
		case []byte:
			partType = defaultContentType
		case map[string]any, []any:
			partType = "application/json"
		default:
			partType = "text/plain"
		}
	}

	if httputil.IsJSON(partType) {
		data, err := json.Marshal(v)
		return partType, data, err
	}
	if data, ok := v.([]byte); ok {
		return partType, data, nil
	}
	s, ok := textValue(v)
	if !ok {
		return "", nil, fmt.Errorf("cannot encode %T as %s", v, partType)
	}
	return partType, []byte(s), nil
}

// textValue formats a primitive as text.
func textValue(v any) (string, bool) {
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

func asObject(v any) (map[string]any, bool) {
	n, ok := validate.Normalize(v)
	if !ok {
		return nil, false
	}
	obj, ok := n.(map[string]any)
	return obj, ok
}

// orderedKeys returns the keys of obj in schema property order, followed by
// undeclared keys in sorted order.
func orderedKeys(obj map[string]any, s *schema.Schema) []string {
	keys := make([]string, 0, len(obj))
	for _, k := range s.DeclaredProperties() {
		if _, ok := obj[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range obj {
		if !slices.Contains(keys, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}
