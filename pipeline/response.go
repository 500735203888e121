package pipeline

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/erraggy/oasbind/bodycodec"
	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/paramcodec"
	"github.com/erraggy/oasbind/schema"
	"github.com/erraggy/oasbind/validate"
)

// Output is a handler's typed response.
type Output struct {
	Status int
	Value  any
	// ContentType selects the declared media type; empty means the first.
	ContentType string
	// Header holds typed header values. Declared headers are validated and
	// encoded; others are encoded as simple values.
	Header map[string]any
}

// RenderedResponse is a response in wire form.
type RenderedResponse struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
	// Value is the validated body before encoding.
	Value any
}

// ResponseResult is the outcome of RenderResponse. Response is set only
// when Valid.
type ResponseResult struct {
	Valid    bool
	Response *RenderedResponse
	Errors   []ValidationError
}

// RenderResponse validates out against the response declared for its
// status and encodes it.
func (e *Engine) RenderResponse(ctx context.Context, out *Output, op *Operation) (*ResponseResult, error) {
	if out == nil || op == nil {
		return nil, ErrNilArgument
	}
	start := time.Now()
	_, span := e.startSpan(ctx, "oasbind.RenderResponse", op)
	defer span.End()

	rendered, errs := e.render(out, op)

	e.finish(span, op, "response", errs, start)
	if len(errs) > 0 {
		e.logger.Warn("response rejected", "operation", op.ID, "status", out.Status, "errors", len(errs))
		return &ResponseResult{Errors: errs}, nil
	}
	return &ResponseResult{Valid: true, Response: rendered}, nil
}

func (e *Engine) render(out *Output, op *Operation) (*RenderedResponse, []ValidationError) {
	resp, ok := op.Response(out.Status)
	if !ok {
		return nil, []ValidationError{located(issues.New(issues.KindUndeclaredResponse, nil,
			"status %d is not declared for operation %s", out.Status, op.ID), issues.InResponse)}
	}

	rendered := &RenderedResponse{Status: out.Status, Header: make(http.Header)}
	errs := renderBody(rendered, out, resp)
	errs = append(errs, renderHeaders(rendered.Header, out.Header, resp)...)
	if rendered.ContentType != "" {
		rendered.Header.Set("Content-Type", rendered.ContentType)
	}
	return rendered, errs
}

func renderBody(rendered *RenderedResponse, out *Output, resp *Response) []ValidationError {
	if len(resp.Bindings) == 0 {
		if out.Value != nil {
			return []ValidationError{located(issues.New(issues.KindBodyFormat, nil,
				"response %s declares no content", resp.Status), issues.InResponse)}
		}
		return nil
	}

	b := resp.Bindings[0]
	if out.ContentType != "" {
		b = resp.Bindings.Select(out.ContentType)
		if b == nil {
			return []ValidationError{located(issues.New(issues.KindUnsupportedMediaType, nil,
				"content type %q is not declared (expected one of %s)",
				out.ContentType, strings.Join(resp.Bindings.ContentTypes(), ", ")), issues.InResponse)}
		}
	}

	value, err := toWire(out.Value, b.Schema)
	if err != nil {
		return []ValidationError{located(issues.New(issues.KindType, nil, "%v", err), issues.InResponse)}
	}
	converted, errs := validate.Convert(value, b.Schema,
		validate.WithDirection(validate.Response),
		validate.WithLocation(issues.InResponse, ""),
	)
	if len(errs) > 0 {
		return errs
	}

	body, contentType, errs := bodycodec.Encode(converted, out.ContentType, resp.Bindings)
	if len(errs) > 0 {
		return errs
	}
	rendered.Body = body
	rendered.ContentType = contentType
	rendered.Value = converted
	return nil
}

func renderHeaders(dst http.Header, values map[string]any, resp *Response) []ValidationError {
	byName := make(map[string]string, len(values))
	for k := range values {
		byName[strings.ToLower(k)] = k
	}

	var errs []ValidationError
	for _, h := range resp.Headers {
		key, present := byName[strings.ToLower(h.Name)]
		if !present {
			_, herrs := paramcodec.Encode(nil, h)
			errs = append(errs, herrs...)
			continue
		}
		delete(byName, strings.ToLower(h.Name))

		v, err := toWire(values[key], h.Schema)
		if err != nil {
			errs = append(errs, headerIssue(h.Name, err))
			continue
		}
		converted, verrs := validate.Convert(v, h.Schema,
			validate.WithDirection(validate.Response),
			validate.WithLocation(issues.InHeader, h.Name),
		)
		if len(verrs) > 0 {
			errs = append(errs, verrs...)
			continue
		}
		errs = append(errs, addHeader(dst, converted, h)...)
	}

	// Undeclared headers pass through as simple values, in a stable order.
	rest := make([]string, 0, len(byName))
	for _, k := range byName {
		rest = append(rest, k)
	}
	slices.Sort(rest)
	for _, k := range rest {
		v, err := toWire(values[k], nil)
		if err != nil {
			errs = append(errs, headerIssue(k, err))
			continue
		}
		if v == nil {
			continue
		}
		h := &paramcodec.Parameter{In: issues.InHeader, Name: k, Schema: schema.Any()}
		errs = append(errs, addHeader(dst, v, h)...)
	}
	return errs
}

func addHeader(dst http.Header, v any, h *paramcodec.Parameter) []ValidationError {
	vals, errs := paramcodec.Encode(v, h)
	if len(errs) > 0 {
		return errs
	}
	for _, s := range vals[h.Name] {
		dst.Add(h.Name, s)
	}
	return nil
}

func headerIssue(name string, err error) ValidationError {
	i := issues.New(issues.KindType, nil, "%v", err)
	i.In = issues.InHeader
	i.Name = name
	return i
}
