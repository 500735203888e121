package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveType(t *testing.T) {
	tests := []struct {
		name     string
		schema   *Schema
		expected string
	}{
		{"nil", nil, ""},
		{"declared", &Schema{Type: TypeInteger}, TypeInteger},
		{"items imply array", &Schema{Items: &Schema{Type: TypeString}}, TypeArray},
		{"properties imply object", &Schema{Properties: map[string]*Schema{"a": {}}}, TypeObject},
		{"any", &Schema{}, ""},
		{
			"composition base wins",
			&Schema{Composition: &Composition{Kind: OneOf, Base: &Schema{Type: TypeObject}, Branches: []*Schema{{Type: TypeString}}}},
			TypeObject,
		},
		{
			"first typed branch",
			&Schema{Composition: &Composition{Kind: AnyOf, Branches: []*Schema{{}, {Type: TypeNumber}}}},
			TypeNumber,
		},
		{
			"not is untyped",
			&Schema{Composition: &Composition{Kind: Not, Branches: []*Schema{{Type: TypeString}}}},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.schema.EffectiveType())
		})
	}
}

func TestItemSchema(t *testing.T) {
	item := &Schema{Type: TypeInteger}
	assert.Same(t, item, (&Schema{Items: item}).ItemSchema())
	assert.Same(t, item, (&Schema{Composition: &Composition{Kind: AllOf, Branches: []*Schema{{Items: item}}}}).ItemSchema())
	assert.Nil(t, (&Schema{}).ItemSchema())
}

func TestIsBinary(t *testing.T) {
	assert.True(t, (&Schema{Type: TypeString, Format: "binary"}).IsBinary())
	assert.True(t, (&Schema{Format: "binary"}).IsBinary())
	assert.False(t, (&Schema{Type: TypeString, Format: "byte"}).IsBinary())
	assert.False(t, (*Schema)(nil).IsBinary())
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "composition", KindComposition.String())
	assert.Equal(t, "unknown", Kind(99).String())
	assert.Equal(t, "oneOf", OneOf.String())
	assert.Equal(t, "not", Not.String())
	assert.Equal(t, "unknown", CompositionKind(99).String())
}
