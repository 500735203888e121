package pipeline

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/erraggy/oasbind/bodycodec"
	"github.com/erraggy/oasbind/internal/httputil"
	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/internal/pathutil"
	"github.com/erraggy/oasbind/loader"
	"github.com/erraggy/oasbind/oaserrors"
	"github.com/erraggy/oasbind/paramcodec"
	"github.com/erraggy/oasbind/schema"
)

// Operation is one compiled method of a path item.
type Operation struct {
	// ID is the operationId, or "METHOD /path" when the document has none.
	ID string
	// Method is upper-case.
	Method string
	// Path is the path template, such as "/pets/{petId}".
	Path string
	// Parameters holds path-level and operation-level parameters merged by
	// location and name, ordered path, query, header, cookie.
	Parameters  []*paramcodec.Parameter
	RequestBody *RequestBody
	// Responses is keyed by "200", "2XX" or "default".
	Responses map[string]*Response
}

// RequestBody is the compiled requestBody of an operation.
type RequestBody struct {
	Required bool
	Bindings bodycodec.Bindings
}

// Response is one compiled entry of an operation's responses.
type Response struct {
	Status string
	// Headers are declared response headers, in document order.
	Headers  []*paramcodec.Parameter
	Bindings bodycodec.Bindings
}

// Parameter returns the declared parameter with the given location and
// name, or nil. Header names compare case-insensitively.
func (op *Operation) Parameter(in, name string) *paramcodec.Parameter {
	for _, p := range op.Parameters {
		if p.In != in {
			continue
		}
		if p.Name == name || (in == issues.InHeader && strings.EqualFold(p.Name, name)) {
			return p
		}
	}
	return nil
}

// Response returns the response declared for status: the exact code,
// then its range ("2XX"), then "default".
func (op *Operation) Response(status int) (*Response, bool) {
	for _, key := range []string{strconv.Itoa(status), httputil.StatusRange(status), "default"} {
		if r, ok := op.Responses[key]; ok {
			return r, true
		}
	}
	return nil, false
}

// ignoredHeaders are header parameters that OAS 3.0 says to ignore.
var ignoredHeaders = []string{"Accept", "Content-Type", "Authorization"}

func isIgnoredHeader(name string) bool {
	return slices.ContainsFunc(ignoredHeaders, func(h string) bool {
		return strings.EqualFold(h, name)
	})
}

var locationRank = map[string]int{
	issues.InPath:   0,
	issues.InQuery:  1,
	issues.InHeader: 2,
	issues.InCookie: 3,
}

// builder compiles the operations of a loaded document.
type builder struct {
	doc      *loader.Document
	compiler *schema.Compiler
	logger   loader.Logger
}

func (b *builder) schemaError(id loader.NodeID, keyword, format string, args ...any) error {
	return &oaserrors.SchemaError{
		Pointer: b.doc.Pointer(id),
		Keyword: keyword,
		Message: fmt.Sprintf(format, args...),
	}
}

func (b *builder) operation(method, path string, pathItem, id loader.NodeID) (*Operation, error) {
	op := &Operation{
		Method:    strings.ToUpper(method),
		Path:      path,
		Responses: make(map[string]*Response),
	}
	if opID, ok := b.doc.String(b.doc.Get(id, "operationId")); ok && opID != "" {
		op.ID = opID
	} else {
		op.ID = op.Method + " " + path
	}

	params, err := b.parameters(pathItem, id)
	if err != nil {
		return nil, err
	}
	op.Parameters = params
	if err := b.checkPathParams(op, id); err != nil {
		return nil, err
	}

	if rb := b.doc.Get(id, "requestBody"); rb != loader.NoNode {
		required, _ := b.doc.Bool(b.doc.Get(rb, "required"))
		bindings, err := b.bindings(b.doc.Get(rb, "content"))
		if err != nil {
			return nil, err
		}
		op.RequestBody = &RequestBody{Required: required, Bindings: bindings}
	}

	responses := b.doc.Get(id, "responses")
	for _, code := range b.doc.Keys(responses) {
		if strings.HasPrefix(code, "x-") {
			continue
		}
		key := code
		if key != "default" {
			key = strings.ToUpper(key)
		}
		if !httputil.ValidateStatusCode(key) {
			return nil, b.schemaError(responses, "responses", "invalid status code %q", code)
		}
		if !strings.Contains(key, "X") && key != "default" && !httputil.IsStandardStatusCode(key) {
			b.logger.Warn("non-standard status code", "operation", op.ID, "status", key)
		}
		r, err := b.response(key, b.doc.Get(responses, code))
		if err != nil {
			return nil, err
		}
		op.Responses[key] = r
	}
	return op, nil
}

// parameters merges path-level and operation-level parameters. A later
// declaration with the same location and name replaces the earlier one.
func (b *builder) parameters(pathItem, op loader.NodeID) ([]*paramcodec.Parameter, error) {
	var list []*paramcodec.Parameter
	index := make(map[string]int)
	for _, owner := range []loader.NodeID{pathItem, op} {
		for _, id := range b.doc.Items(b.doc.Get(owner, "parameters")) {
			p, err := b.parameter(id, "", "")
			if err != nil {
				return nil, err
			}
			key := p.In + ":" + p.Name
			if p.In == issues.InHeader {
				if isIgnoredHeader(p.Name) {
					b.logger.Debug("ignoring header parameter", "name", p.Name)
					continue
				}
				key = p.In + ":" + strings.ToLower(p.Name)
			}
			if i, ok := index[key]; ok {
				list[i] = p
				continue
			}
			index[key] = len(list)
			list = append(list, p)
		}
	}
	slices.SortStableFunc(list, func(x, y *paramcodec.Parameter) int {
		return locationRank[x.In] - locationRank[y.In]
	})
	return list, nil
}

func (b *builder) checkPathParams(op *Operation, id loader.NodeID) error {
	names := pathutil.TemplateParams(op.Path)
	for _, name := range names {
		if op.Parameter(issues.InPath, name) == nil {
			return b.schemaError(id, "parameters", "path parameter %q of %s is not declared", name, op.Path)
		}
	}
	for _, p := range op.Parameters {
		if p.In == issues.InPath && !slices.Contains(names, p.Name) {
			b.logger.Warn("path parameter not in template", "operation", op.ID, "name", p.Name)
		}
	}
	return nil
}

// parameter compiles a parameter or header object. in and name override
// the node's own fields; response and encoding headers have neither.
func (b *builder) parameter(id loader.NodeID, in, name string) (*paramcodec.Parameter, error) {
	node := b.doc.Deref(id)
	if in == "" {
		in, _ = b.doc.String(b.doc.Get(node, "in"))
		if _, ok := locationRank[in]; !ok {
			return nil, b.schemaError(node, "in", "unknown parameter location %q", in)
		}
	}
	if name == "" {
		name, _ = b.doc.String(b.doc.Get(node, "name"))
		if name == "" {
			return nil, b.schemaError(node, "name", "parameter name is required")
		}
	}

	p := &paramcodec.Parameter{In: in, Name: name}
	p.Required, _ = b.doc.Bool(b.doc.Get(node, "required"))
	if in == issues.InPath {
		p.Required = true
	}

	p.Style = paramcodec.DefaultStyle(in)
	if s, ok := b.doc.String(b.doc.Get(node, "style")); ok {
		p.Style = paramcodec.Style(s)
	}
	if err := paramcodec.ValidateStyle(in, p.Style); err != nil {
		return nil, &oaserrors.SchemaError{Pointer: b.doc.Pointer(node), Keyword: "style", Cause: err}
	}
	p.Explode = paramcodec.DefaultExplode(p.Style)
	if v, ok := b.doc.Bool(b.doc.Get(node, "explode")); ok {
		p.Explode = v
	}
	if v, ok := b.doc.Bool(b.doc.Get(node, "allowEmptyValue")); ok {
		p.AllowEmptyValue = &v
	}

	switch content := b.doc.Get(node, "content"); {
	case b.doc.Has(node, "schema"):
		s, err := b.compiler.Compile(b.doc.Get(node, "schema"))
		if err != nil {
			return nil, err
		}
		p.Schema = s
	case content != loader.NoNode:
		types := b.doc.Keys(content)
		if len(types) != 1 {
			return nil, b.schemaError(content, "content", "parameter %q must declare exactly one media type, got %d", name, len(types))
		}
		s, err := b.compiler.Compile(b.doc.Get(b.doc.Get(content, types[0]), "schema"))
		if err != nil {
			return nil, err
		}
		p.ContentType = types[0]
		p.Schema = s
	default:
		p.Schema = schema.Any()
	}
	return p, nil
}

func (b *builder) bindings(content loader.NodeID) (bodycodec.Bindings, error) {
	var out bodycodec.Bindings
	for _, mt := range b.doc.Keys(content) {
		media := b.doc.Get(content, mt)
		s, err := b.compiler.Compile(b.doc.Get(media, "schema"))
		if err != nil {
			return nil, err
		}
		binding := &bodycodec.MediaTypeBinding{ContentType: mt, Schema: s}
		encodings := b.doc.Get(media, "encoding")
		for _, prop := range b.doc.Keys(encodings) {
			enc, err := b.encoding(b.doc.Get(encodings, prop))
			if err != nil {
				return nil, err
			}
			if binding.Encoding == nil {
				binding.Encoding = make(map[string]*bodycodec.Encoding)
			}
			binding.Encoding[prop] = enc
		}
		out = append(out, binding)
	}
	return out, nil
}

func (b *builder) encoding(id loader.NodeID) (*bodycodec.Encoding, error) {
	enc := &bodycodec.Encoding{}
	enc.ContentType, _ = b.doc.String(b.doc.Get(id, "contentType"))

	if s, ok := b.doc.String(b.doc.Get(id, "style")); ok {
		enc.Style = paramcodec.Style(s)
		if err := paramcodec.ValidateStyle(issues.InQuery, enc.Style); err != nil {
			return nil, &oaserrors.SchemaError{Pointer: b.doc.Pointer(id), Keyword: "style", Cause: err}
		}
	}
	explode, hasExplode := b.doc.Bool(b.doc.Get(id, "explode"))
	if enc.Style == "" && hasExplode {
		enc.Style = paramcodec.StyleForm
	}
	if hasExplode {
		enc.Explode = explode
	} else if enc.Style != "" {
		enc.Explode = paramcodec.DefaultExplode(enc.Style)
	}

	headers := b.doc.Get(id, "headers")
	for _, name := range b.doc.Keys(headers) {
		if strings.EqualFold(name, "Content-Type") {
			continue
		}
		h, err := b.parameter(b.doc.Get(headers, name), issues.InHeader, name)
		if err != nil {
			return nil, err
		}
		if enc.Headers == nil {
			enc.Headers = make(map[string]*paramcodec.Parameter)
		}
		enc.Headers[name] = h
	}
	return enc, nil
}

func (b *builder) response(status string, id loader.NodeID) (*Response, error) {
	r := &Response{Status: status}
	headers := b.doc.Get(id, "headers")
	for _, name := range b.doc.Keys(headers) {
		if strings.EqualFold(name, "Content-Type") {
			continue
		}
		h, err := b.parameter(b.doc.Get(headers, name), issues.InHeader, name)
		if err != nil {
			return nil, err
		}
		r.Headers = append(r.Headers, h)
	}
	bindings, err := b.bindings(b.doc.Get(id, "content"))
	if err != nil {
		return nil, err
	}
	r.Bindings = bindings
	return r, nil
}
