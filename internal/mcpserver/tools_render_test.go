package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRenderResponse(t *testing.T) {
	engineCache.reset()

	result, output, err := handleRenderResponse(context.Background(), nil, renderResponseInput{
		Spec:        petstore,
		OperationID: "getPet",
		Value:       map[string]any{"id": float64(1), "name": "rex"},
	})
	require.NoError(t, err)
	require.Nil(t, result)
	require.True(t, output.Valid, "%v", output.Errors)
	assert.Equal(t, "getPet", output.Operation)
	assert.Equal(t, 200, output.Status)
	assert.Equal(t, "application/json", output.ContentType)
	assert.JSONEq(t, `{"id":1,"name":"rex"}`, output.Body)
	assert.Equal(t, 0, output.ErrorCount)
}

func TestHandleRenderResponseHeaders(t *testing.T) {
	engineCache.reset()

	_, output, err := handleRenderResponse(context.Background(), nil, renderResponseInput{
		Spec:        petstore,
		OperationID: "listPets",
		Value:       []any{},
		Headers:     map[string]any{"X-Total": float64(1)},
	})
	require.NoError(t, err)
	require.True(t, output.Valid, "%v", output.Errors)
	assert.Equal(t, []string{"1"}, output.Headers["X-Total"])
	assert.JSONEq(t, `[]`, output.Body)
}

func TestHandleRenderResponseStatusSelection(t *testing.T) {
	engineCache.reset()

	tests := []struct {
		name   string
		op     string
		status int
		value  any
		body   string
	}{
		{name: "exact", op: "getPet", status: 404, value: map[string]any{"code": float64(404), "message": "no such pet"}, body: `{"code":404,"message":"no such pet"}`},
		{name: "range", op: "createPet", status: 422, value: map[string]any{"code": float64(422), "message": "bad"}, body: `{"code":422,"message":"bad"}`},
		{name: "default", op: "listPets", status: 500, value: map[string]any{"code": float64(500), "message": "boom"}, body: `{"code":500,"message":"boom"}`},
		{name: "no content", op: "deletePet", status: 204},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, output, err := handleRenderResponse(context.Background(), nil, renderResponseInput{
				Spec:        petstore,
				OperationID: tt.op,
				Status:      tt.status,
				Value:       tt.value,
			})
			require.NoError(t, err)
			require.Nil(t, result)
			require.True(t, output.Valid, "%v", output.Errors)
			assert.Equal(t, tt.status, output.Status)
			if tt.body == "" {
				assert.Empty(t, output.Body)
				return
			}
			assert.JSONEq(t, tt.body, output.Body)
		})
	}
}

func TestHandleRenderResponseInvalid(t *testing.T) {
	engineCache.reset()

	tests := []struct {
		name    string
		input   renderResponseInput
		kind    string
		pointer string
	}{
		{
			name:    "write only property",
			input:   renderResponseInput{Spec: petstore, OperationID: "getPet", Value: map[string]any{"id": float64(1), "name": "rex", "secret": "hunter2"}},
			kind:    "write_only",
			pointer: "/secret",
		},
		{
			name:    "wrong type",
			input:   renderResponseInput{Spec: petstore, OperationID: "getPet", Status: 404, Value: map[string]any{"code": "x", "message": "m"}},
			kind:    "type",
			pointer: "/code",
		},
		{
			name:    "undeclared status",
			input:   renderResponseInput{Spec: petstore, OperationID: "getPet", Status: 500},
			kind:    "undeclared_response",
			pointer: "/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, output, err := handleRenderResponse(context.Background(), nil, tt.input)
			require.NoError(t, err)
			require.Nil(t, result)
			assert.False(t, output.Valid)
			assert.Empty(t, output.Body)
			assert.Zero(t, output.Status)
			require.Equal(t, 1, output.ErrorCount)
			assert.Equal(t, tt.kind, output.Errors[0].Kind)
			assert.Equal(t, tt.pointer, output.Errors[0].Path)
		})
	}
}

func TestHandleRenderResponseErrors(t *testing.T) {
	engineCache.reset()

	result, _, err := handleRenderResponse(context.Background(), nil, renderResponseInput{Spec: petstore, OperationID: "nope"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), `unknown operation "nope"`)

	result, _, err = handleRenderResponse(context.Background(), nil, renderResponseInput{OperationID: "getPet"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
