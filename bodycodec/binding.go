package bodycodec

import (
	"github.com/erraggy/oasbind/internal/httputil"
	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/paramcodec"
	"github.com/erraggy/oasbind/schema"
	"github.com/erraggy/oasbind/validate"
)

// ValidationError describes one problem with a body.
type ValidationError = issues.Issue

// Encoding describes how one property of a form or multipart body is serialized.
type Encoding struct {
	// ContentType lists the media types allowed for a multipart part,
	// comma-separated. Empty selects the default for the property's type.
	ContentType string
	// Headers are decoded from the headers of a multipart part.
	Headers map[string]*paramcodec.Parameter
	// Style and Explode apply to form bodies.
	Style   paramcodec.Style
	Explode bool
}

// MediaTypeBinding is one declared media type of a body.
type MediaTypeBinding struct {
	// ContentType is the declared media type, possibly a wildcard such as "image/*".
	ContentType string
	Schema      *schema.Schema
	// Encoding is keyed by property name.
	Encoding map[string]*Encoding
}

// Bindings is the set of media types declared for one body.
type Bindings []*MediaTypeBinding

// Select returns the binding that best matches contentType: an exact match,
// then "type/*", then "*/*". Media type parameters are ignored. It returns
// nil when nothing matches.
func (bs Bindings) Select(contentType string) *MediaTypeBinding {
	mt, _ := httputil.ParseMediaType(contentType)
	if mt == "" {
		return nil
	}
	var best *MediaTypeBinding
	bestRank := -1
	for _, b := range bs {
		if !httputil.MatchMediaType(b.ContentType, mt) {
			continue
		}
		if rank := httputil.MediaTypeSpecificity(b.ContentType); rank > bestRank {
			best, bestRank = b, rank
		}
	}
	return best
}

// ContentTypes lists the declared media types in order.
func (bs Bindings) ContentTypes() []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ContentType
	}
	return out
}

// location returns the issue location for a direction.
func location(dir validate.Direction) string {
	if dir == validate.Response {
		return issues.InResponse
	}
	return issues.InBody
}

func bodyIssue(in string, kind issues.Kind, path []string, format string, args ...any) ValidationError {
	e := issues.New(kind, path, format, args...)
	e.In = in
	return e
}

// propertyParam describes a form property as a query parameter.
func propertyParam(b *MediaTypeBinding, name string) *paramcodec.Parameter {
	p := &paramcodec.Parameter{
		In:      issues.InQuery,
		Name:    name,
		Style:   paramcodec.StyleForm,
		Explode: true,
		Schema:  b.Schema.PropertySchema(name),
	}
	if enc := b.Encoding[name]; enc != nil {
		if enc.Style != "" {
			p.Style = enc.Style
			p.Explode = enc.Explode
		}
		if httputil.IsJSON(enc.ContentType) {
			p.ContentType = enc.ContentType
		}
	}
	return p
}

// relocate moves parameter issues of a form or multipart property into the body.
func relocate(errs []ValidationError, in string, prefix ...string) []ValidationError {
	for i := range errs {
		errs[i].In = in
		errs[i].Name = ""
		errs[i].Path = append(append([]string(nil), prefix...), errs[i].Path...)
	}
	return errs
}
