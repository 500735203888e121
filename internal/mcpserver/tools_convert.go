package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasbind/pipeline"
)

type convertRequestInput struct {
	Spec        specInput           `json:"spec"                   jsonschema:"The OpenAPI 3.0 document the request targets"`
	OperationID string              `json:"operation_id,omitempty" jsonschema:"Operation to convert for. When omitted, method and path route the request."`
	Method      string              `json:"method,omitempty"       jsonschema:"HTTP method (default GET)"`
	Path        string              `json:"path,omitempty"         jsonschema:"Request path, optionally with a query string, e.g. /pets/7?verbose=true"`
	PathParams  map[string]string   `json:"path_params,omitempty"  jsonschema:"Raw path parameter values, used with operation_id when path is omitted"`
	Query       map[string][]string `json:"query,omitempty"        jsonschema:"Additional raw query values"`
	Headers     map[string]string   `json:"headers,omitempty"      jsonschema:"Raw request headers"`
	Cookies     map[string]string   `json:"cookies,omitempty"      jsonschema:"Raw cookie values"`
	Body        string              `json:"body,omitempty"         jsonschema:"Raw request body"`
	ContentType string              `json:"content_type,omitempty" jsonschema:"Body media type (default: the Content-Type header)"`
}

type convertedRequest struct {
	Path        map[string]any `json:"path,omitempty"`
	Query       map[string]any `json:"query,omitempty"`
	Header      map[string]any `json:"header,omitempty"`
	Cookie      map[string]any `json:"cookie,omitempty"`
	Body        any            `json:"body,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
}

type convertRequestOutput struct {
	Operation  string            `json:"operation"`
	Valid      bool              `json:"valid"`
	Request    *convertedRequest `json:"request,omitempty"`
	ErrorCount int               `json:"error_count"`
	Errors     []issueOutput     `json:"errors,omitempty"`
}

func handleConvertRequest(ctx context.Context, _ *mcp.CallToolRequest, input convertRequestInput) (*mcp.CallToolResult, convertRequestOutput, error) {
	if input.OperationID == "" && input.Path == "" {
		return errResult(fmt.Errorf("either operation_id or path must be provided")), convertRequestOutput{}, nil
	}

	engine, err := input.Spec.resolve()
	if err != nil {
		return errResult(err), convertRequestOutput{}, nil
	}

	raw, target, err := input.rawRequest()
	if err != nil {
		return errResult(err), convertRequestOutput{}, nil
	}

	op, err := input.operation(engine, raw, target)
	if err != nil {
		return errResult(err), convertRequestOutput{}, nil
	}

	res, err := engine.ConvertRequest(ctx, raw, op)
	if err != nil {
		return errResult(err), convertRequestOutput{}, nil
	}

	output := convertRequestOutput{
		Operation:  op.ID,
		Valid:      res.Valid,
		ErrorCount: len(res.Errors),
		Errors:     limitIssues(res.Errors),
	}
	if res.Valid {
		r := res.Request
		output.Request = &convertedRequest{
			Path:        r.Path,
			Query:       r.Query,
			Header:      r.Header,
			Cookie:      r.Cookie,
			Body:        jsonSafe(r.Body),
			ContentType: r.ContentType,
		}
	}
	return nil, output, nil
}

// rawRequest builds the wire request. target is nil when no path was given.
func (in convertRequestInput) rawRequest() (*pipeline.RawRequest, *url.URL, error) {
	raw := &pipeline.RawRequest{
		Query:       url.Values{},
		Header:      http.Header{},
		Cookies:     in.Cookies,
		ContentType: in.ContentType,
	}
	if in.Body != "" {
		raw.Body = []byte(in.Body)
	}
	for name, value := range in.Headers {
		raw.Header.Set(name, value)
	}
	if raw.ContentType == "" {
		raw.ContentType = raw.Header.Get("Content-Type")
	}

	var target *url.URL
	if in.Path != "" {
		u, err := url.Parse(in.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid path %q: %w", in.Path, err)
		}
		if !strings.HasPrefix(u.Path, "/") {
			return nil, nil, fmt.Errorf("path must start with '/': %q", in.Path)
		}
		raw.Query = u.Query()
		target = u
	}
	for name, values := range in.Query {
		for _, v := range values {
			raw.Query.Add(name, v)
		}
	}
	return raw, target, nil
}

// operation resolves the target operation and fills raw.PathParams.
func (in convertRequestInput) operation(engine *pipeline.Engine, raw *pipeline.RawRequest, target *url.URL) (*pipeline.Operation, error) {
	method := strings.ToUpper(in.Method)
	if method == "" {
		method = http.MethodGet
	}

	if in.OperationID != "" {
		op, ok := engine.Operation(in.OperationID)
		if !ok {
			return nil, unknownOperation(in.OperationID)
		}
		raw.PathParams = in.PathParams
		if target != nil {
			found, params, ok := engine.Find(op.Method, target.EscapedPath())
			if !ok || found != op {
				return nil, fmt.Errorf("path %q does not match operation %s (%s %s)", target.Path, op.ID, op.Method, op.Path)
			}
			raw.PathParams = params
		}
		return op, nil
	}

	op, params, ok := engine.Find(method, target.EscapedPath())
	if !ok {
		return nil, fmt.Errorf("no operation matches %s %s", method, target.Path)
	}
	raw.PathParams = params
	return op, nil
}

func unknownOperation(id string) error {
	return fmt.Errorf("unknown operation %q", id)
}

// jsonSafe replaces binary values with strings so they serialize as text
// instead of base64.
func jsonSafe(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = jsonSafe(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = jsonSafe(item)
		}
		return out
	}
	return v
}
