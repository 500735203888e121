// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes oasbind's request and response binding as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/oasbind"
	"github.com/erraggy/oasbind/pipeline"
)

const serverInstructions = `oasbind MCP server: compiles OpenAPI 3.0 documents and binds requests and responses to their operations.

Tools:
- compile: load a document and list its operations, parameters, bodies and responses
- convert_request: convert a raw request (path, query, headers, cookies, body) into typed values, or report every validation error
- render_response: validate a typed response value against an operation and encode it

Configuration: set OASBIND_* environment variables in your MCP client config.
- OASBIND_MAX_REF_DEPTH (default: 100): maximum $ref chain length
- OASBIND_MAX_BODY_SIZE (default: 10MB): maximum request body size
- OASBIND_ERROR_LIMIT (default: 100): maximum errors returned per call
- OASBIND_CACHE_MAX_SIZE (default: 10): number of compiled documents kept

Caching: compiled documents are cached per session. File entries use path+mtime as key, so edits are picked up on the next call.`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	if cfg.CacheEnabled {
		engineCache.startSweeper(ctx, cfg.CacheSweepInterval)
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "oasbind", Version: oasbind.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "compile",
		Description: "Load and compile an OpenAPI 3.0 document. Returns every operation with its method, path, parameters (location, style, explode, required), request body media types and declared responses, plus schema warnings. Use it first to learn the operation IDs the other tools take.",
	}, handleCompile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_request",
		Description: "Convert a raw HTTP request into typed values for the operation it targets. Give operation_id, or method plus a path (which may include a query string) to route the request. Returns typed path, query, header and cookie parameters and the decoded body, or every validation error with its location, JSON pointer and kind. Error count is capped by OASBIND_ERROR_LIMIT.",
	}, handleConvertRequest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_response",
		Description: "Validate a response value against the response an operation declares for a status code (exact code, then range like 2XX, then default) and encode it. Returns the encoded body, content type and headers, or every validation error. Properties marked writeOnly must not appear in a response.",
	}, handleRenderResponse)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

// issueOutput is the wire form of a validation error.
type issueOutput struct {
	In      string `json:"in,omitempty"`
	Name    string `json:"name,omitempty"`
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// limitIssues converts errs, keeping at most cfg.ErrorLimit of them.
func limitIssues(errs []pipeline.ValidationError) []issueOutput {
	if len(errs) == 0 {
		return nil
	}
	if cfg.ErrorLimit > 0 && len(errs) > cfg.ErrorLimit {
		errs = errs[:cfg.ErrorLimit]
	}
	out := make([]issueOutput, 0, len(errs))
	for _, e := range errs {
		out = append(out, issueOutput{
			In:      e.In,
			Name:    e.Name,
			Path:    e.Pointer(),
			Kind:    string(e.Kind),
			Message: e.Message,
		})
	}
	return out
}
