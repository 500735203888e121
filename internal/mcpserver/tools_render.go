package mcpserver

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasbind/pipeline"
)

type renderResponseInput struct {
	Spec        specInput      `json:"spec"                   jsonschema:"The OpenAPI 3.0 document declaring the operation"`
	OperationID string         `json:"operation_id"           jsonschema:"Operation whose responses are used"`
	Status      int            `json:"status,omitempty"       jsonschema:"Response status code (default 200)"`
	Value       any            `json:"value,omitempty"        jsonschema:"Typed response body value"`
	ContentType string         `json:"content_type,omitempty" jsonschema:"Declared media type to encode as (default: the first declared)"`
	Headers     map[string]any `json:"headers,omitempty"      jsonschema:"Typed response header values"`
}

type renderResponseOutput struct {
	Operation   string              `json:"operation"`
	Valid       bool                `json:"valid"`
	Status      int                 `json:"status,omitempty"`
	ContentType string              `json:"content_type,omitempty"`
	Headers     map[string][]string `json:"headers,omitempty"`
	Body        string              `json:"body,omitempty"`
	ErrorCount  int                 `json:"error_count"`
	Errors      []issueOutput       `json:"errors,omitempty"`
}

func handleRenderResponse(ctx context.Context, _ *mcp.CallToolRequest, input renderResponseInput) (*mcp.CallToolResult, renderResponseOutput, error) {
	engine, err := input.Spec.resolve()
	if err != nil {
		return errResult(err), renderResponseOutput{}, nil
	}
	op, ok := engine.Operation(input.OperationID)
	if !ok {
		return errResult(unknownOperation(input.OperationID)), renderResponseOutput{}, nil
	}

	status := input.Status
	if status == 0 {
		status = http.StatusOK
	}
	res, err := engine.RenderResponse(ctx, &pipeline.Output{
		Status:      status,
		Value:       input.Value,
		ContentType: input.ContentType,
		Header:      input.Headers,
	}, op)
	if err != nil {
		return errResult(err), renderResponseOutput{}, nil
	}

	output := renderResponseOutput{
		Operation:  op.ID,
		Valid:      res.Valid,
		ErrorCount: len(res.Errors),
		Errors:     limitIssues(res.Errors),
	}
	if res.Valid {
		output.Status = res.Response.Status
		output.ContentType = res.Response.ContentType
		output.Headers = res.Response.Header
		output.Body = string(res.Response.Body)
	}
	return nil, output, nil
}
