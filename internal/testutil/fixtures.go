// Package testutil provides test utilities and fixtures for unit tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"go.yaml.in/yaml/v4"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// PetstoreYAML is a 3.0 document exercising parameters in every location,
// JSON, form and multipart bodies, readOnly/writeOnly properties, range and
// default responses, and a discriminated oneOf.
const PetstoreYAML = `openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
paths:
  /pets:
    get:
      operationId: listPets
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
            minimum: 1
            maximum: 100
            default: 20
        - name: ids
          in: query
          style: form
          explode: true
          schema:
            type: array
            items:
              type: integer
        - name: X-Request-ID
          in: header
          schema:
            type: string
            format: uuid
        - name: session
          in: cookie
          schema:
            type: string
      responses:
        '200':
          description: pets
          headers:
            X-Total:
              required: true
              schema:
                type: integer
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
        default:
          description: error
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Error'
    post:
      operationId: createPet
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
          application/x-www-form-urlencoded:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        '201':
          description: created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
        4XX:
          description: client error
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Error'
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema:
          type: integer
          format: int64
    get:
      operationId: getPet
      responses:
        '200':
          description: pet
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
        '404':
          description: not found
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Error'
    delete:
      operationId: deletePet
      responses:
        '204':
          description: deleted
  /pets/{petId}/photo:
    parameters:
      - name: petId
        in: path
        required: true
        schema:
          type: integer
    post:
      operationId: uploadPhoto
      requestBody:
        required: true
        content:
          multipart/form-data:
            schema:
              type: object
              required: [file]
              properties:
                file:
                  type: string
                  format: binary
                caption:
                  type: string
                  maxLength: 40
                tags:
                  type: array
                  items:
                    type: string
      responses:
        '204':
          description: stored
  /animals:
    post:
      operationId: createAnimal
      requestBody:
        content:
          application/json:
            schema:
              oneOf:
                - $ref: '#/components/schemas/Cat'
                - $ref: '#/components/schemas/Dog'
              discriminator:
                propertyName: petType
                mapping:
                  doggo: Dog
      responses:
        '200':
          description: ok
          content:
            text/plain:
              schema:
                type: string
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id:
          type: integer
          format: int64
          readOnly: true
        name:
          type: string
          minLength: 1
        tag:
          type: string
          nullable: true
        secret:
          type: string
          format: password
          writeOnly: true
    Error:
      type: object
      required: [code, message]
      properties:
        code:
          type: integer
          format: int32
        message:
          type: string
    Cat:
      type: object
      required: [petType, name]
      properties:
        petType:
          type: string
        name:
          type: string
        indoor:
          type: boolean
    Dog:
      type: object
      required: [petType, name]
      properties:
        petType:
          type: string
        name:
          type: string
        barks:
          type: boolean
`

// NewDocument returns a minimal 3.0 document as a map, ready for tests to
// add paths and components before marshaling it with [WriteTempYAML] or [MarshalYAML].
func NewDocument() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "Test API",
			"version": "1.0.0",
		},
		"paths": map[string]any{},
	}
}

// NewSchemaDocument returns a minimal document holding the given named
// schemas under components/schemas.
func NewSchemaDocument(schemas map[string]any) map[string]any {
	doc := NewDocument()
	doc["components"] = map[string]any{"schemas": schemas}
	return doc
}

// MarshalYAML marshals doc to YAML, failing the test on error.
func MarshalYAML(t testing.TB, doc any) []byte {
	t.Helper()

	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("Failed to marshal document to YAML: %v", err)
	}
	return data
}

// WriteTempYAML marshals a document to YAML and writes it to a temporary file.
// Returns the path to the temporary file.
// The file is automatically cleaned up when the test completes (via t.TempDir).
func WriteTempYAML(t testing.TB, doc any) string {
	t.Helper()
	return WriteTempFile(t, "test.yaml", string(MarshalYAML(t, doc)))
}

// WriteTempFile writes content to name inside a temporary directory.
// Subdirectories in name are created as needed.
func WriteTempFile(t testing.TB, name, content string) string {
	t.Helper()

	return WriteFile(t, t.TempDir(), name, content)
}

// WriteFile writes content to name inside dir, creating subdirectories.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write temporary file: %v", err)
	}
	return path
}
