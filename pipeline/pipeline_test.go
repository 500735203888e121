package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/internal/testutil"
	"github.com/erraggy/oasbind/oaserrors"
)

func newPetstore(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithBytes([]byte(testutil.PetstoreYAML), "petstore.yaml")}, opts...)
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func mustOperation(t *testing.T, e *Engine, id string) *Operation {
	t.Helper()
	op, ok := e.Operation(id)
	require.True(t, ok, "operation %s", id)
	return op
}

func docBytes(t *testing.T, paths map[string]any) []byte {
	t.Helper()
	doc := testutil.NewDocument()
	doc["paths"] = paths
	return testutil.MarshalYAML(t, doc)
}

var okResponses = map[string]any{"200": map[string]any{"description": "ok"}}

func TestNew(t *testing.T) {
	e := newPetstore(t)

	var ids []string
	for _, op := range e.Operations() {
		ids = append(ids, op.ID)
	}
	assert.Equal(t, []string{"listPets", "createPet", "getPet", "deletePet", "uploadPhoto", "createAnimal"}, ids)

	list := mustOperation(t, e, "listPets")
	assert.Equal(t, "GET", list.Method)
	assert.Equal(t, "/pets", list.Path)
	assert.Nil(t, list.RequestBody)
	assert.Contains(t, list.Responses, "200")
	assert.Contains(t, list.Responses, "default")

	create := mustOperation(t, e, "createPet")
	require.NotNil(t, create.RequestBody)
	assert.True(t, create.RequestBody.Required)
	assert.Equal(t, []string{"application/json", "application/x-www-form-urlencoded"}, create.RequestBody.Bindings.ContentTypes())
	assert.Contains(t, create.Responses, "4XX")

	get := mustOperation(t, e, "getPet")
	require.Len(t, get.Parameters, 1)
	assert.Equal(t, "petId", get.Parameters[0].Name)
	assert.True(t, get.Parameters[0].Required)

	_, ok := e.Operation("missing")
	assert.False(t, ok)
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name   string
		opts   func(t *testing.T) []Option
		target error
	}{
		{
			name:   "no source",
			opts:   func(t *testing.T) []Option { return nil },
			target: oaserrors.ErrConfig,
		},
		{
			name: "two sources",
			opts: func(t *testing.T) []Option {
				return []Option{WithBytes([]byte("a"), ""), WithFilePath("x.yaml")}
			},
			target: oaserrors.ErrConfig,
		},
		{
			name:   "negative body size",
			opts:   func(t *testing.T) []Option { return []Option{WithMaxBodySize(-1)} },
			target: oaserrors.ErrConfig,
		},
		{
			name: "syntax error",
			opts: func(t *testing.T) []Option {
				return []Option{WithBytes([]byte("openapi: [3.0.3"), "bad.yaml")}
			},
			target: oaserrors.ErrDocument,
		},
		{
			name: "undeclared path parameter",
			opts: func(t *testing.T) []Option {
				return []Option{WithBytes(docBytes(t, map[string]any{
					"/items/{id}": map[string]any{"get": map[string]any{"responses": okResponses}},
				}), "")}
			},
			target: oaserrors.ErrSchema,
		},
		{
			name: "duplicate operationId",
			opts: func(t *testing.T) []Option {
				op := map[string]any{"operationId": "same", "responses": okResponses}
				return []Option{WithBytes(docBytes(t, map[string]any{
					"/a": map[string]any{"get": op},
					"/b": map[string]any{"get": op},
				}), "")}
			},
			target: oaserrors.ErrDocument,
		},
		{
			name: "style not allowed for location",
			opts: func(t *testing.T) []Option {
				return []Option{WithBytes(docBytes(t, map[string]any{
					"/a": map[string]any{"get": map[string]any{
						"parameters": []any{map[string]any{
							"name": "q", "in": "query", "style": "label",
							"schema": map[string]any{"type": "string"},
						}},
						"responses": okResponses,
					}},
				}), "")}
			},
			target: oaserrors.ErrSchema,
		},
		{
			name: "invalid status code",
			opts: func(t *testing.T) []Option {
				return []Option{WithBytes(docBytes(t, map[string]any{
					"/a": map[string]any{"get": map[string]any{
						"responses": map[string]any{"600": map[string]any{"description": "?"}},
					}},
				}), "")}
			},
			target: oaserrors.ErrSchema,
		},
		{
			name: "malformed template",
			opts: func(t *testing.T) []Option {
				return []Option{WithBytes(docBytes(t, map[string]any{
					"/a/{": map[string]any{"get": map[string]any{"responses": okResponses}},
				}), "")}
			},
			target: oaserrors.ErrDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts(t)...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestParameterMerge(t *testing.T) {
	data := docBytes(t, map[string]any{
		"/items/{id}": map[string]any{
			"parameters": []any{
				map[string]any{"name": "id", "in": "path", "required": true, "schema": map[string]any{"type": "integer"}},
				map[string]any{"name": "q", "in": "query", "schema": map[string]any{"type": "integer"}},
			},
			"get": map[string]any{
				"operationId": "getItem",
				"parameters": []any{
					map[string]any{"name": "trace", "in": "header", "schema": map[string]any{"type": "boolean"}},
					map[string]any{"name": "q", "in": "query", "schema": map[string]any{"type": "string"}},
					map[string]any{"name": "Accept", "in": "header", "schema": map[string]any{"type": "string"}},
				},
				"responses": okResponses,
			},
		},
	})
	e, err := New(WithBytes(data, "items.yaml"))
	require.NoError(t, err)

	op := mustOperation(t, e, "getItem")
	require.Len(t, op.Parameters, 3)
	assert.Equal(t, "id", op.Parameters[0].Name)
	assert.Equal(t, "q", op.Parameters[1].Name)
	assert.Equal(t, "string", op.Parameters[1].Schema.Type)
	assert.Equal(t, "trace", op.Parameters[2].Name)

	assert.NotNil(t, op.Parameter(issues.InHeader, "TRACE"))
	assert.Nil(t, op.Parameter(issues.InHeader, "Accept"))
}

func TestOperationWithoutID(t *testing.T) {
	data := docBytes(t, map[string]any{
		"/ping": map[string]any{"get": map[string]any{"responses": okResponses}},
	})
	e, err := New(WithBytes(data, ""))
	require.NoError(t, err)

	op, ok := e.Operation("GET /ping")
	require.True(t, ok)
	assert.Equal(t, "/ping", op.Path)
}

func TestFind(t *testing.T) {
	e := newPetstore(t)

	tests := []struct {
		method, path string
		wantID       string
		wantParams   map[string]string
	}{
		{"GET", "/pets", "listPets", map[string]string{}},
		{"post", "/pets", "createPet", map[string]string{}},
		{"GET", "/pets/42", "getPet", map[string]string{"petId": "42"}},
		{"DELETE", "/pets/42", "deletePet", map[string]string{"petId": "42"}},
		{"POST", "/pets/7/photo", "uploadPhoto", map[string]string{"petId": "7"}},
		{"GET", "/pets/a%20b", "getPet", map[string]string{"petId": "a b"}},
		{"DELETE", "/pets", "", nil},
		{"GET", "/unknown", "", nil},
		{"GET", "/pets/1/2", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			op, params, ok := e.Find(tt.method, tt.path)
			if tt.wantID == "" {
				assert.False(t, ok)
				assert.Nil(t, op)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantID, op.ID)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestFindPrefersConcreteTemplates(t *testing.T) {
	idParam := []any{map[string]any{"name": "id", "in": "path", "required": true, "schema": map[string]any{"type": "string"}}}
	data := docBytes(t, map[string]any{
		"/pets/{id}": map[string]any{
			"parameters": idParam,
			"get":        map[string]any{"operationId": "byID", "responses": okResponses},
		},
		"/pets/mine": map[string]any{
			"get": map[string]any{"operationId": "mine", "responses": okResponses},
		},
	})
	e, err := New(WithBytes(data, ""))
	require.NoError(t, err)

	op, _, ok := e.Find("GET", "/pets/mine")
	require.True(t, ok)
	assert.Equal(t, "mine", op.ID)

	op, params, ok := e.Find("GET", "/pets/other")
	require.True(t, ok)
	assert.Equal(t, "byID", op.ID)
	assert.Equal(t, map[string]string{"id": "other"}, params)
}

func TestConvertRequestParameters(t *testing.T) {
	e := newPetstore(t)
	op := mustOperation(t, e, "listPets")

	header := http.Header{}
	header.Set("X-Request-ID", "123e4567-e89b-12d3-a456-426614174000")
	res, err := e.ConvertRequest(context.Background(), &RawRequest{
		Query:   url.Values{"ids": {"1", "2", "3"}},
		Header:  header,
		Cookies: map[string]string{"session": "abc"},
	}, op)
	require.NoError(t, err)
	require.True(t, res.Valid, "%v", res.Errors)

	req := res.Request
	assert.Equal(t, "listPets", req.OperationID)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, req.Query["ids"])
	assert.Equal(t, int64(20), req.Query["limit"])
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", req.Header["X-Request-ID"])
	v, ok := req.Param(issues.InCookie, "session")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	assert.Nil(t, req.Body)
}

func TestConvertRequestAccumulatesErrors(t *testing.T) {
	e := newPetstore(t)
	op := mustOperation(t, e, "listPets")

	res, err := e.ConvertRequest(context.Background(), &RawRequest{
		Query:  url.Values{"limit": {"500"}},
		Header: http.Header{"X-Request-Id": {"not-a-uuid"}},
	}, op)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Nil(t, res.Request)
	require.Len(t, res.Errors, 2)

	assert.Equal(t, issues.KindBounds, res.Errors[0].Kind)
	assert.Equal(t, issues.InQuery, res.Errors[0].In)
	assert.Equal(t, "limit", res.Errors[0].Name)
	assert.Equal(t, "/", res.Errors[0].Pointer())

	assert.Equal(t, issues.KindFormat, res.Errors[1].Kind)
	assert.Equal(t, issues.InHeader, res.Errors[1].In)
	assert.Equal(t, "X-Request-ID", res.Errors[1].Name)
}

func TestConvertRequestPath(t *testing.T) {
	e := newPetstore(t)
	op := mustOperation(t, e, "getPet")

	res, err := e.ConvertRequest(context.Background(), &RawRequest{PathParams: map[string]string{"petId": "42"}}, op)
	require.NoError(t, err)
	require.True(t, res.Valid)
	assert.Equal(t, int64(42), res.Request.Path["petId"])

	res, err = e.ConvertRequest(context.Background(), &RawRequest{PathParams: map[string]string{"petId": "rex"}}, op)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, issues.KindType, res.Errors[0].Kind)
	assert.Equal(t, issues.InPath, res.Errors[0].In)

	res, err = e.ConvertRequest(context.Background(), &RawRequest{}, op)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, issues.KindMissingParameter, res.Errors[0].Kind)
}

func TestConvertRequestBody(t *testing.T) {
	e := newPetstore(t, WithMaxBodySize(64))
	op := mustOperation(t, e, "createPet")

	tests := []struct {
		name        string
		req         *RawRequest
		wantBody    any
		wantType    string
		wantKind    issues.Kind
		wantPointer string
	}{
		{
			name:     "json",
			req:      &RawRequest{Body: []byte(`{"name":"rex","tag":null}`), ContentType: "application/json"},
			wantBody: map[string]any{"name": "rex", "tag": nil},
			wantType: "application/json",
		},
		{
			name: "content type from header",
			req: &RawRequest{
				Body:   []byte(`name=rex`),
				Header: http.Header{"Content-Type": {"application/x-www-form-urlencoded"}},
			},
			wantBody: map[string]any{"name": "rex"},
			wantType: "application/x-www-form-urlencoded",
		},
		{
			name:        "empty object",
			req:         &RawRequest{Body: []byte(`{}`), ContentType: "application/json"},
			wantKind:    issues.KindRequired,
			wantPointer: "/name",
		},
		{
			name:        "missing body",
			req:         &RawRequest{ContentType: "application/json"},
			wantKind:    issues.KindRequired,
			wantPointer: "/",
		},
		{
			name:        "too large",
			req:         &RawRequest{Body: make([]byte, 65), ContentType: "application/json"},
			wantKind:    issues.KindBodyTooLarge,
			wantPointer: "/",
		},
		{
			name:        "unsupported media type",
			req:         &RawRequest{Body: []byte("a,b"), ContentType: "text/csv"},
			wantKind:    issues.KindUnsupportedMediaType,
			wantPointer: "/",
		},
		{
			name:        "read only property",
			req:         &RawRequest{Body: []byte(`{"id":1,"name":"rex"}`), ContentType: "application/json"},
			wantKind:    issues.KindReadOnly,
			wantPointer: "/id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.ConvertRequest(context.Background(), tt.req, op)
			require.NoError(t, err)
			if tt.wantKind == "" {
				require.True(t, res.Valid, "%v", res.Errors)
				assert.Equal(t, tt.wantBody, res.Request.Body)
				assert.Equal(t, tt.wantType, res.Request.ContentType)
				return
			}
			require.False(t, res.Valid)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.wantKind, res.Errors[0].Kind)
			assert.Equal(t, tt.wantPointer, res.Errors[0].Pointer())
			assert.Equal(t, issues.InBody, res.Errors[0].In)
		})
	}
}

func TestOptionalBodyMayBeEmpty(t *testing.T) {
	e := newPetstore(t)
	op := mustOperation(t, e, "createAnimal")

	res, err := e.ConvertRequest(context.Background(), &RawRequest{}, op)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Nil(t, res.Request.Body)
}

func TestNilArguments(t *testing.T) {
	e := newPetstore(t)
	op := mustOperation(t, e, "listPets")

	_, err := e.ConvertRequest(context.Background(), nil, op)
	assert.ErrorIs(t, err, ErrNilArgument)
	_, err = e.ConvertRequest(context.Background(), &RawRequest{}, nil)
	assert.ErrorIs(t, err, ErrNilArgument)
	_, err = e.RenderResponse(context.Background(), nil, op)
	assert.ErrorIs(t, err, ErrNilArgument)
}
