package mcpserver

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasbind/internal/testutil"
)

// startTestSession creates an in-process MCP server/client pair and returns
// the connected client session. The server is shut down when the test ends.
func startTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()

	server := mcp.NewServer(
		&mcp.Implementation{Name: "oasbind-test", Version: "test"},
		nil,
	)
	registerAllTools(server)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(
		&mcp.Implementation{Name: "test-client", Version: "test"},
		nil,
	)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})

	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestIntegration_ListTools(t *testing.T) {
	session := startTestSession(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, result.Tools, 3)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, "tool %q has empty description", tool.Name)
		assert.NotNil(t, tool.InputSchema, "tool %q has no input schema", tool.Name)
	}
	for _, name := range []string{"compile", "convert_request", "render_response"} {
		assert.True(t, slices.Contains(names, name), "missing tool: %s", name)
	}
}

func TestIntegration_CallTool_Compile(t *testing.T) {
	engineCache.reset()
	session := startTestSession(t)

	result := callTool(t, session, "compile", map[string]any{
		"spec": map[string]any{"content": testutil.PetstoreYAML},
	})
	assert.False(t, result.IsError)

	structured := unmarshalStructured(t, result)
	assert.Equal(t, float64(6), structured["operation_count"])
	ops, ok := structured["operations"].([]any)
	require.True(t, ok)
	first, ok := ops[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "listPets", first["id"])
}

func TestIntegration_CallTool_ConvertRequest(t *testing.T) {
	engineCache.reset()
	session := startTestSession(t)

	result := callTool(t, session, "convert_request", map[string]any{
		"spec":    map[string]any{"content": testutil.PetstoreYAML},
		"method":  "POST",
		"path":    "/pets",
		"headers": map[string]any{"Content-Type": "application/json"},
		"body":    `{"name":"rex","tag":null}`,
	})
	assert.False(t, result.IsError)

	structured := unmarshalStructured(t, result)
	assert.Equal(t, "createPet", structured["operation"])
	assert.Equal(t, true, structured["valid"])
	request, ok := structured["request"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "rex", "tag": nil}, request["body"])
}

func TestIntegration_CallTool_ConvertRequestInvalid(t *testing.T) {
	engineCache.reset()
	session := startTestSession(t)

	result := callTool(t, session, "convert_request", map[string]any{
		"spec": map[string]any{"content": testutil.PetstoreYAML},
		"path": "/pets/rex",
	})
	assert.False(t, result.IsError)

	structured := unmarshalStructured(t, result)
	assert.Equal(t, false, structured["valid"])
	assert.Equal(t, float64(1), structured["error_count"])
	errs, ok := structured["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	first, ok := errs[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "path", first["in"])
	assert.Equal(t, "petId", first["name"])
	assert.Equal(t, "type", first["kind"])
}

func TestIntegration_CallTool_RenderResponse(t *testing.T) {
	engineCache.reset()
	session := startTestSession(t)

	result := callTool(t, session, "render_response", map[string]any{
		"spec":         map[string]any{"content": testutil.PetstoreYAML},
		"operation_id": "getPet",
		"value":        map[string]any{"id": 7, "name": "rex"},
	})
	assert.False(t, result.IsError)

	structured := unmarshalStructured(t, result)
	assert.Equal(t, true, structured["valid"])
	assert.Equal(t, float64(200), structured["status"])
	assert.Equal(t, "application/json", structured["content_type"])
	body, ok := structured["body"].(string)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":7,"name":"rex"}`, body)
}

func TestIntegration_CallTool_Errors(t *testing.T) {
	engineCache.reset()
	session := startTestSession(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{
			name: "missing spec",
			tool: "compile",
			args: map[string]any{"spec": map[string]any{}},
			want: "exactly one of file, url, or content must be provided",
		},
		{
			name: "missing file path sanitized",
			tool: "compile",
			args: map[string]any{"spec": map[string]any{"file": "/tmp/oasbind-missing/api.yaml"}},
			want: "<path>",
		},
		{
			name: "unknown operation",
			tool: "render_response",
			args: map[string]any{"spec": map[string]any{"content": testutil.PetstoreYAML}, "operation_id": "nope"},
			want: `unknown operation "nope"`,
		},
		{
			name: "no target",
			tool: "convert_request",
			args: map[string]any{"spec": map[string]any{"content": testutil.PetstoreYAML}},
			want: "either operation_id or path must be provided",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, session, tt.tool, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

// unmarshalStructured extracts the structured output from a CallToolResult.
// It first checks StructuredContent, then falls back to parsing the first TextContent.
func unmarshalStructured(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()

	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &m), "failed to parse text content as JSON")
	return m
}

// resultText returns the text of the first content item.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content, "expected at least one content item")
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return text.Text
}
