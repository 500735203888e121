package mcpserver

import (
	"context"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasbind/paramcodec"
	"github.com/erraggy/oasbind/pipeline"
)

type compileInput struct {
	Spec        specInput `json:"spec"                   jsonschema:"The OpenAPI 3.0 document to compile"`
	OperationID string    `json:"operation_id,omitempty" jsonschema:"Only return this operation"`
	NoWarnings  bool      `json:"no_warnings,omitempty"  jsonschema:"Omit schema warnings from the output"`
}

type parameterSummary struct {
	In          string `json:"in"`
	Name        string `json:"name"`
	Required    bool   `json:"required"`
	Style       string `json:"style"`
	Explode     bool   `json:"explode"`
	Type        string `json:"type,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type bodySummary struct {
	Required     bool     `json:"required"`
	ContentTypes []string `json:"content_types"`
}

type responseSummary struct {
	Status       string   `json:"status"`
	ContentTypes []string `json:"content_types,omitempty"`
	Headers      []string `json:"headers,omitempty"`
}

type operationSummary struct {
	ID          string             `json:"id"`
	Method      string             `json:"method"`
	Path        string             `json:"path"`
	Parameters  []parameterSummary `json:"parameters,omitempty"`
	RequestBody *bodySummary       `json:"request_body,omitempty"`
	Responses   []responseSummary  `json:"responses"`
}

type compileOutput struct {
	OperationCount int                `json:"operation_count"`
	Operations     []operationSummary `json:"operations"`
	Warnings       []string           `json:"warnings,omitempty"`
}

func handleCompile(_ context.Context, _ *mcp.CallToolRequest, input compileInput) (*mcp.CallToolResult, compileOutput, error) {
	engine, err := input.Spec.resolve()
	if err != nil {
		return errResult(err), compileOutput{}, nil
	}

	ops := engine.Operations()
	if input.OperationID != "" {
		op, ok := engine.Operation(input.OperationID)
		if !ok {
			return errResult(unknownOperation(input.OperationID)), compileOutput{}, nil
		}
		ops = []*pipeline.Operation{op}
	}

	output := compileOutput{OperationCount: len(ops), Operations: make([]operationSummary, 0, len(ops))}
	for _, op := range ops {
		output.Operations = append(output.Operations, summarizeOperation(op))
	}
	if !input.NoWarnings {
		for _, w := range engine.Warnings() {
			output.Warnings = append(output.Warnings, w.String())
		}
	}
	return nil, output, nil
}

func summarizeOperation(op *pipeline.Operation) operationSummary {
	s := operationSummary{ID: op.ID, Method: op.Method, Path: op.Path}
	for _, p := range op.Parameters {
		s.Parameters = append(s.Parameters, summarizeParameter(p))
	}
	if op.RequestBody != nil {
		s.RequestBody = &bodySummary{
			Required:     op.RequestBody.Required,
			ContentTypes: op.RequestBody.Bindings.ContentTypes(),
		}
	}

	statuses := make([]string, 0, len(op.Responses))
	for status := range op.Responses {
		statuses = append(statuses, status)
	}
	slices.Sort(statuses)
	for _, status := range statuses {
		resp := op.Responses[status]
		rs := responseSummary{Status: status}
		if len(resp.Bindings) > 0 {
			rs.ContentTypes = resp.Bindings.ContentTypes()
		}
		for _, h := range resp.Headers {
			rs.Headers = append(rs.Headers, h.Name)
		}
		s.Responses = append(s.Responses, rs)
	}
	return s
}

func summarizeParameter(p *paramcodec.Parameter) parameterSummary {
	ps := parameterSummary{
		In:          p.In,
		Name:        p.Name,
		Required:    p.Required,
		Style:       string(p.Style),
		Explode:     p.Explode,
		ContentType: p.ContentType,
	}
	if p.Schema != nil {
		ps.Type = p.Schema.Type
	}
	return ps
}
