package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/erraggy/oasbind/bodycodec"
	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/paramcodec"
	"github.com/erraggy/oasbind/validate"
)

// ErrNilArgument is returned when a request, output or operation is nil.
var ErrNilArgument = errors.New("pipeline: nil argument")

// RawRequest is an incoming request in wire form.
type RawRequest struct {
	// PathParams holds decoded path parameter values, as returned by Engine.Find.
	PathParams map[string]string
	Query      url.Values
	Header     http.Header
	Cookies    map[string]string
	Body       []byte
	// ContentType defaults to the Content-Type header.
	ContentType string
}

// ConvertedRequest holds typed parameter values and the typed body.
// Parameters that were absent and have no default are left out.
type ConvertedRequest struct {
	OperationID string
	Path        map[string]any
	Query       map[string]any
	Header      map[string]any
	Cookie      map[string]any
	Body        any
	// ContentType is the declared media type the body matched.
	ContentType string
}

// Param returns the converted value of a parameter.
func (r *ConvertedRequest) Param(in, name string) (any, bool) {
	m := r.location(in)
	if m == nil {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

func (r *ConvertedRequest) location(in string) map[string]any {
	switch in {
	case issues.InPath:
		return r.Path
	case issues.InQuery:
		return r.Query
	case issues.InHeader:
		return r.Header
	case issues.InCookie:
		return r.Cookie
	}
	return nil
}

// RequestResult is the outcome of ConvertRequest. Request is set only
// when Valid.
type RequestResult struct {
	Valid   bool
	Request *ConvertedRequest
	Errors  []ValidationError
}

// ConvertRequest decodes and validates every declared parameter and the
// body of req. All problems are collected; none stops the others.
func (e *Engine) ConvertRequest(ctx context.Context, req *RawRequest, op *Operation) (*RequestResult, error) {
	if req == nil || op == nil {
		return nil, ErrNilArgument
	}
	start := time.Now()
	_, span := e.startSpan(ctx, "oasbind.ConvertRequest", op)
	defer span.End()

	converted := &ConvertedRequest{
		OperationID: op.ID,
		Path:        make(map[string]any),
		Query:       make(map[string]any),
		Header:      make(map[string]any),
		Cookie:      make(map[string]any),
	}
	sources := requestSources(req)

	var errs []ValidationError
	for _, p := range op.Parameters {
		src := sources[p.In]
		v, perrs := paramcodec.Decode(src, p)
		if len(perrs) > 0 {
			errs = append(errs, perrs...)
			continue
		}
		if v != nil || paramcodec.Present(src, p) {
			converted.location(p.In)[p.Name] = v
		}
	}

	if op.RequestBody != nil {
		body, ct, berrs := e.convertBody(req, op.RequestBody)
		errs = append(errs, berrs...)
		converted.Body = body
		converted.ContentType = ct
	}

	e.finish(span, op, "request", errs, start)
	if len(errs) > 0 {
		e.logger.Debug("request rejected", "operation", op.ID, "errors", len(errs))
		return &RequestResult{Errors: errs}, nil
	}
	return &RequestResult{Valid: true, Request: converted}, nil
}

func (e *Engine) convertBody(req *RawRequest, rb *RequestBody) (any, string, []ValidationError) {
	if int64(len(req.Body)) > e.maxBodySize {
		return nil, "", []ValidationError{located(issues.New(issues.KindBodyTooLarge, nil,
			"body of %d bytes exceeds the limit of %d", len(req.Body), e.maxBodySize), issues.InBody)}
	}
	if len(req.Body) == 0 {
		if rb.Required {
			return nil, "", []ValidationError{located(issues.New(issues.KindRequired, nil,
				"request body is required"), issues.InBody)}
		}
		return nil, "", nil
	}

	contentType := req.ContentType
	if contentType == "" && req.Header != nil {
		contentType = req.Header.Get("Content-Type")
	}
	v, b, errs := bodycodec.Decode(req.Body, contentType, rb.Bindings, validate.Request)
	if len(errs) > 0 || b == nil {
		return nil, "", errs
	}
	return v, b.ContentType, nil
}

func requestSources(req *RawRequest) map[string]paramcodec.Values {
	path := make(paramcodec.Values, len(req.PathParams))
	for k, v := range req.PathParams {
		path[k] = []string{v}
	}
	cookies := make(paramcodec.Values, len(req.Cookies))
	for k, v := range req.Cookies {
		cookies[k] = []string{v}
	}
	return map[string]paramcodec.Values{
		issues.InPath:   path,
		issues.InQuery:  paramcodec.Values(req.Query),
		issues.InHeader: paramcodec.Values(req.Header),
		issues.InCookie: cookies,
	}
}

func located(i ValidationError, in string) ValidationError {
	i.In = in
	return i
}
