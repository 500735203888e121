package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scalarsDoc = `openapi: 3.0.0
paths: {}
x-values:
  str: hello
  quoted: '42'
  int: 42
  float: 1.5
  bool: true
  null: ~
  list: [1, two, 3.0]
components:
  schemas:
    Pet:
      type: object
    Alias:
      $ref: '#/components/schemas/Pet'
`

func TestDocumentValue(t *testing.T) {
	doc, err := loadString(t, scalarsDoc)
	require.NoError(t, err)

	values := doc.Value(doc.Get(doc.Root(), "x-values"))
	assert.Equal(t, map[string]any{
		"str":    "hello",
		"quoted": "42",
		"int":    int64(42),
		"float":  1.5,
		"bool":   true,
		"null":   nil,
		"list":   []any{int64(1), "two", 3.0},
	}, values)
}

func TestDocumentAccessors(t *testing.T) {
	doc, err := loadString(t, scalarsDoc)
	require.NoError(t, err)
	values := doc.Get(doc.Root(), "x-values")

	s, ok := doc.String(doc.Get(values, "quoted"))
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	_, ok = doc.String(doc.Get(values, "null"))
	assert.False(t, ok)
	assert.True(t, doc.IsNull(doc.Get(values, "null")))
	assert.True(t, doc.IsNull(doc.Get(values, "absent")))

	i, ok := doc.Int(doc.Get(values, "int"))
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)

	_, ok = doc.Int(doc.Get(values, "float"))
	assert.False(t, ok)

	b, ok := doc.Bool(doc.Get(values, "bool"))
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = doc.Number(doc.Get(values, "str"))
	assert.False(t, ok)

	assert.Len(t, doc.Items(doc.Get(values, "list")), 3)
	assert.Nil(t, doc.Items(doc.Get(values, "str")))
	assert.Equal(t, SequenceNode, doc.Kind(doc.Get(values, "list")))
	assert.Equal(t, ScalarNode, doc.Kind(NoNode))
	assert.Equal(t, NoNode, doc.Get(NoNode, "x"))
	assert.False(t, doc.Has(values, "absent"))
}

func TestDocumentResolveRef(t *testing.T) {
	doc, err := loadString(t, scalarsDoc)
	require.NoError(t, err)

	pet, err := doc.ResolveRef(doc.Root(), "#/components/schemas/Pet")
	require.NoError(t, err)
	assert.Equal(t, "#/components/schemas/Pet", doc.Pointer(pet))

	alias, err := doc.ResolveRef(doc.Root(), "#/components/schemas/Alias")
	require.NoError(t, err)
	assert.Equal(t, pet, alias, "references resolve to their final target")

	_, err = doc.ResolveRef(doc.Root(), "#/components/schemas/Missing")
	assert.Error(t, err)

	_, err = doc.ResolveRef(doc.Root(), "other.yaml#/Pet")
	assert.Error(t, err)
}
