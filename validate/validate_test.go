package validate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/internal/testutil"
	"github.com/erraggy/oasbind/loader"
	"github.com/erraggy/oasbind/schema"
)

// compileSchemas compiles every named component schema of a document whose
// components/schemas block is given without indentation.
func compileSchemas(t *testing.T, schemas string, names ...string) map[string]*schema.Schema {
	t.Helper()
	var b strings.Builder
	b.WriteString("openapi: 3.0.3\ninfo:\n  title: t\n  version: '1'\npaths: {}\ncomponents:\n  schemas:\n")
	for _, line := range strings.Split(strings.TrimRight(schemas, "\n"), "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	doc, err := loader.Load(loader.WithBytes([]byte(b.String()), "api.yaml"))
	require.NoError(t, err)

	c := schema.NewCompiler(doc)
	out := make(map[string]*schema.Schema, len(names))
	for _, name := range names {
		s, err := c.CompilePointer("#/components/schemas/" + name)
		require.NoError(t, err, name)
		out[name] = s
	}
	return out
}

func compileOne(t *testing.T, schemas, name string) *schema.Schema {
	t.Helper()
	return compileSchemas(t, schemas, name)[name]
}

func petstoreSchemas(t *testing.T) map[string]*schema.Schema {
	t.Helper()
	doc, err := loader.Load(loader.WithBytes([]byte(testutil.PetstoreYAML), "petstore.yaml"))
	require.NoError(t, err)
	c := schema.NewCompiler(doc)
	out := map[string]*schema.Schema{}
	for _, name := range []string{"Pet", "Error", "Cat", "Dog"} {
		s, err := c.CompilePointer("#/components/schemas/" + name)
		require.NoError(t, err)
		out[name] = s
	}
	animal, err := c.CompilePointer("#/paths/~1animals/post/requestBody/content/application~1json/schema")
	require.NoError(t, err)
	out["Animal"] = animal
	return out
}

func TestConvertInteger(t *testing.T) {
	s := compileOne(t, `
N:
  type: integer
  minimum: 1
  maximum: 10
`, "N")

	tests := []struct {
		name  string
		value any
		want  any
		kinds []Kind
	}{
		{name: "int in range", value: 5, want: int64(5)},
		{name: "integral float", value: 5.0, want: int64(5)},
		{name: "uint8", value: uint8(7), want: int64(7)},
		{name: "above maximum", value: 11, kinds: []Kind{KindBounds}},
		{name: "below minimum", value: int64(0), kinds: []Kind{KindBounds}},
		{name: "fraction", value: 5.5, kinds: []Kind{KindType}},
		{name: "string", value: "5", kinds: []Kind{KindType}},
		{name: "null", value: nil, kinds: []Kind{KindType}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := Convert(tt.value, s)
			if len(tt.kinds) == 0 {
				require.Empty(t, errs)
				assert.Equal(t, tt.want, got)
				return
			}
			assert.Equal(t, tt.kinds, issues.Kinds(errs))
		})
	}
}

func TestBoundsErrorAtRoot(t *testing.T) {
	s := compileOne(t, "N:\n  type: integer\n  minimum: 1\n  maximum: 10\n", "N")

	errs := Validate(11, s)
	require.Len(t, errs, 1)
	assert.Equal(t, KindBounds, errs[0].Kind)
	assert.Equal(t, "/", errs[0].Pointer())
	assert.Equal(t, int64(11), errs[0].Value)
}

func TestExclusiveBoundsAndMultipleOf(t *testing.T) {
	schemas := compileSchemas(t, `
Ex:
  type: number
  minimum: 0
  exclusiveMinimum: true
  maximum: 1
  exclusiveMaximum: true
Tenths:
  type: number
  multipleOf: 0.1
Threes:
  type: integer
  multipleOf: 3
`, "Ex", "Tenths", "Threes")

	tests := []struct {
		name  string
		s     string
		value any
		kinds []Kind
	}{
		{name: "exclusive minimum hit", s: "Ex", value: 0, kinds: []Kind{KindBounds}},
		{name: "exclusive maximum hit", s: "Ex", value: 1.0, kinds: []Kind{KindBounds}},
		{name: "inside exclusive range", s: "Ex", value: 0.5},
		{name: "float multiple", s: "Tenths", value: 0.3},
		{name: "float not multiple", s: "Tenths", value: 0.35, kinds: []Kind{KindMultipleOf}},
		{name: "int multiple", s: "Threes", value: 9},
		{name: "int not multiple", s: "Threes", value: 7, kinds: []Kind{KindMultipleOf}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.value, schemas[tt.s])
			if len(tt.kinds) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.kinds, issues.Kinds(errs))
		})
	}
}

func TestNumberConvertsIntegers(t *testing.T) {
	s := compileOne(t, "N:\n  type: number\n", "N")
	got, errs := Convert(3, s)
	require.Empty(t, errs)
	assert.Equal(t, float64(3), got)
}

func TestStringConstraints(t *testing.T) {
	schemas := compileSchemas(t, `
Short:
  type: string
  minLength: 2
  maxLength: 3
  pattern: '^[a-z]+$'
Mail:
  type: string
  format: email
Color:
  type: string
  enum: [red, green]
Blob:
  type: string
  format: binary
`, "Short", "Mail", "Color", "Blob")

	tests := []struct {
		name  string
		s     string
		value any
		kinds []Kind
	}{
		{name: "valid", s: "Short", value: "abc"},
		{name: "length counts runes", s: "Short", value: "日本", kinds: []Kind{KindPattern}},
		{name: "too long", s: "Short", value: "abcd", kinds: []Kind{KindLength}},
		{name: "too short and pattern", s: "Short", value: "A", kinds: []Kind{KindLength, KindPattern}},
		{name: "email", s: "Mail", value: "a@example.com"},
		{name: "bad email", s: "Mail", value: "nope", kinds: []Kind{KindFormat}},
		{name: "enum member", s: "Color", value: "red"},
		{name: "enum miss", s: "Color", value: "blue", kinds: []Kind{KindEnum}},
		{name: "binary accepts bytes", s: "Blob", value: []byte{0xff, 0x00}},
		{name: "text rejects bytes", s: "Short", value: []byte("abc"), kinds: []Kind{KindType}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.value, schemas[tt.s])
			if len(tt.kinds) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.kinds, issues.Kinds(errs))
		})
	}
}

func TestFormatConversion(t *testing.T) {
	schemas := compileSchemas(t, `
When:
  type: string
  format: date-time
Day:
  type: string
  format: date
Data:
  type: string
  format: byte
Mail:
  type: string
  format: email
Event:
  type: object
  properties:
    at:
      type: string
      format: date-time
    on:
      type: string
      format: date
      default: '2024-05-06'
    days:
      type: array
      items:
        type: string
        format: date
`, "When", "Day", "Data", "Mail", "Event")

	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		s     string
		value any
		dir   Direction
		want  any
	}{
		{name: "date-time", s: "When", value: "2024-01-02T03:04:05Z", dir: Request, want: when},
		{name: "date", s: "Day", value: "2024-01-02", dir: Request, want: day},
		{name: "byte", s: "Data", value: "aGVsbG8=", dir: Request, want: []byte("hello")},
		{name: "non-converting format", s: "Mail", value: "a@example.com", dir: Request, want: "a@example.com"},
		{name: "response keeps strings", s: "When", value: "2024-01-02T03:04:05Z", dir: Response, want: "2024-01-02T03:04:05Z"},
		{name: "none keeps strings", s: "Data", value: "aGVsbG8=", dir: None, want: "aGVsbG8="},
		{name: "typed time accepted again", s: "When", value: when, dir: Request, want: when},
		{name: "typed bytes accepted again", s: "Data", value: []byte("hello"), dir: Request, want: []byte("hello")},
		{name: "typed time renders in responses", s: "Day", value: day, dir: Response, want: "2024-01-02"},
		{
			name:  "nested values",
			s:     "Event",
			value: map[string]any{"at": "2024-01-02T03:04:05Z", "days": []any{"2024-01-02"}},
			dir:   Request,
			want: map[string]any{
				"at":   when,
				"on":   time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
				"days": []any{day},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errs := Convert(tt.value, schemas[tt.s], WithDirection(tt.dir))
			require.Empty(t, errs)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("invalid values stay errors", func(t *testing.T) {
		errs := Validate("2024-13-01", schemas["Day"], WithDirection(Request))
		assert.Equal(t, []Kind{KindFormat}, issues.Kinds(errs))
	})
}

func TestRegisteredFormatConverts(t *testing.T) {
	schema.RegisterFormat("x-upper-test", schema.Format{
		Check: func(v any) error {
			if s, ok := v.(string); ok && strings.ToUpper(s) != s {
				return errors.New("not upper case")
			}
			return nil
		},
		Convert: func(s string) (any, error) { return strings.ToLower(s), nil },
	})
	s := compileOne(t, `Code:
  type: string
  format: x-upper-test
`, "Code")
	require.NotNil(t, s.FormatRules)

	out, errs := Convert("ABC", s, WithDirection(Request))
	require.Empty(t, errs)
	assert.Equal(t, "abc", out)

	errs = Validate("abc", s)
	assert.Equal(t, []Kind{KindFormat}, issues.Kinds(errs))
}

func TestNullable(t *testing.T) {
	schemas := compileSchemas(t, `
Opt:
  type: string
  nullable: true
Req:
  type: string
`, "Opt", "Req")

	got, errs := Convert(nil, schemas["Opt"])
	assert.Empty(t, errs)
	assert.Nil(t, got)

	errs = Validate(nil, schemas["Req"])
	require.Len(t, errs, 1)
	assert.Equal(t, KindType, errs[0].Kind)

	var p *string
	assert.Empty(t, Validate(p, schemas["Opt"]))
	assert.Empty(t, Validate(nil, nil))
}

func TestArrays(t *testing.T) {
	s := compileOne(t, `
Ids:
  type: array
  minItems: 1
  maxItems: 3
  uniqueItems: true
  items:
    type: integer
`, "Ids")

	got, errs := Convert([]int{1, 2}, s)
	require.Empty(t, errs)
	assert.Equal(t, []any{int64(1), int64(2)}, got)

	tests := []struct {
		name     string
		value    any
		kinds    []Kind
		pointers []string
	}{
		{name: "empty", value: []any{}, kinds: []Kind{KindItems}, pointers: []string{"/"}},
		{name: "too many", value: []any{1, 2, 3, 4}, kinds: []Kind{KindItems}, pointers: []string{"/"}},
		{name: "duplicate", value: []any{1, 1.0}, kinds: []Kind{KindUniqueItems}, pointers: []string{"/1"}},
		{name: "bad item", value: []any{1, "x"}, kinds: []Kind{KindType}, pointers: []string{"/1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.value, s)
			assert.Equal(t, tt.kinds, issues.Kinds(errs))
			var pointers []string
			for _, e := range errs {
				pointers = append(pointers, e.Pointer())
			}
			assert.Equal(t, tt.pointers, pointers)
		})
	}
}

func TestObjectReadWriteOnly(t *testing.T) {
	pet := petstoreSchemas(t)["Pet"]

	t.Run("request omits read-only required", func(t *testing.T) {
		got, errs := Convert(map[string]any{"name": "Rex"}, pet, WithDirection(Request))
		require.Empty(t, errs)
		assert.Equal(t, map[string]any{"name": "Rex"}, got)
	})

	t.Run("request rejects read-only", func(t *testing.T) {
		errs := Validate(map[string]any{"id": 1, "name": "Rex"}, pet, WithDirection(Request))
		require.Len(t, errs, 1)
		assert.Equal(t, KindReadOnly, errs[0].Kind)
		assert.Equal(t, "/id", errs[0].Pointer())
	})

	t.Run("response requires read-only", func(t *testing.T) {
		errs := Validate(map[string]any{"name": "Rex"}, pet, WithDirection(Response))
		require.Len(t, errs, 1)
		assert.Equal(t, KindRequired, errs[0].Kind)
		assert.Equal(t, "/id", errs[0].Pointer())
	})

	t.Run("response rejects write-only and redacts it", func(t *testing.T) {
		errs := Validate(map[string]any{"id": 1, "name": "Rex", "secret": "hunter2"}, pet, WithDirection(Response))
		require.Len(t, errs, 1)
		assert.Equal(t, KindWriteOnly, errs[0].Kind)
		assert.Equal(t, "/secret", errs[0].Pointer())
		assert.Equal(t, redacted, errs[0].Value)
		assert.NotContains(t, errs[0].Message, "hunter2")
	})

	t.Run("no direction applies no rules", func(t *testing.T) {
		errs := Validate(map[string]any{"id": 1, "name": "Rex", "secret": "s"}, pet)
		assert.Empty(t, errs)
	})

	t.Run("missing name", func(t *testing.T) {
		errs := Validate(map[string]any{"tag": nil}, pet, WithDirection(Request))
		require.Len(t, errs, 1)
		assert.Equal(t, KindRequired, errs[0].Kind)
		assert.Equal(t, "/name", errs[0].Pointer())
	})
}

func TestPasswordValuesAreRedacted(t *testing.T) {
	s := compileOne(t, `
P:
  type: string
  format: password
  minLength: 12
`, "P")

	errs := Validate("hunter2", s)
	require.Len(t, errs, 1)
	assert.Equal(t, KindLength, errs[0].Kind)
	assert.Equal(t, redacted, errs[0].Value)
	assert.NotContains(t, errs[0].String(), "hunter2")
}

func TestObjectDefaultsAndAdditional(t *testing.T) {
	schemas := compileSchemas(t, `
Page:
  type: object
  additionalProperties: false
  properties:
    limit:
      type: integer
      default: 20
    tags:
      type: array
      items:
        type: string
      default: [a]
Labels:
  type: object
  minProperties: 1
  additionalProperties:
    type: string
Meta:
  type: object
  x-patternProperties:
    '^x-':
      type: integer
`, "Page", "Labels", "Meta")

	t.Run("request fills defaults without mutating input", func(t *testing.T) {
		in := map[string]any{}
		got, errs := Convert(in, schemas["Page"], WithDirection(Request))
		require.Empty(t, errs)
		assert.Equal(t, map[string]any{"limit": int64(20), "tags": []any{"a"}}, got)
		assert.Empty(t, in)

		got.(map[string]any)["tags"].([]any)[0] = "changed"
		again, _ := Convert(map[string]any{}, schemas["Page"], WithDirection(Request))
		assert.Equal(t, []any{"a"}, again.(map[string]any)["tags"])
	})

	t.Run("response does not fill defaults", func(t *testing.T) {
		got, errs := Convert(map[string]any{}, schemas["Page"], WithDirection(Response))
		require.Empty(t, errs)
		assert.Empty(t, got)
	})

	t.Run("additional property forbidden", func(t *testing.T) {
		errs := Validate(map[string]any{"limit": 1, "extra": true}, schemas["Page"])
		require.Len(t, errs, 1)
		assert.Equal(t, KindAdditionalProperties, errs[0].Kind)
		assert.Equal(t, "/extra", errs[0].Pointer())
	})

	t.Run("additional property schema", func(t *testing.T) {
		assert.Empty(t, Validate(map[string]string{"a": "b"}, schemas["Labels"]))
		errs := Validate(map[string]any{"a": 1}, schemas["Labels"])
		require.Len(t, errs, 1)
		assert.Equal(t, KindType, errs[0].Kind)
		assert.Equal(t, "/a", errs[0].Pointer())
	})

	t.Run("min properties", func(t *testing.T) {
		errs := Validate(map[string]any{}, schemas["Labels"])
		assert.Equal(t, []Kind{KindProperties}, issues.Kinds(errs))
	})

	t.Run("pattern properties", func(t *testing.T) {
		assert.Empty(t, Validate(map[string]any{"x-rate": 5, "other": "free"}, schemas["Meta"]))
		errs := Validate(map[string]any{"x-rate": "fast"}, schemas["Meta"])
		require.Len(t, errs, 1)
		assert.Equal(t, "/x-rate", errs[0].Pointer())
	})
}

func TestCompositions(t *testing.T) {
	schemas := compileSchemas(t, `
Both:
  allOf:
    - type: object
      required: [a]
    - type: object
      required: [b]
Either:
  oneOf:
    - type: string
    - type: boolean
Overlap:
  oneOf:
    - type: integer
    - type: number
First:
  anyOf:
    - type: integer
    - type: number
NotString:
  not:
    type: string
`, "Both", "Either", "Overlap", "First", "NotString")

	t.Run("allOf reports every branch", func(t *testing.T) {
		errs := Validate(map[string]any{}, schemas["Both"])
		assert.Equal(t, []Kind{KindRequired}, issues.Kinds(errs))
		require.Len(t, errs, 2)
		assert.Equal(t, "/a", errs[0].Pointer())
		assert.Equal(t, "/b", errs[1].Pointer())
	})

	t.Run("oneOf exactly one", func(t *testing.T) {
		got, errs := Convert("x", schemas["Either"])
		require.Empty(t, errs)
		assert.Equal(t, "x", got)
	})

	t.Run("oneOf none attaches branches", func(t *testing.T) {
		errs := Validate(5, schemas["Either"])
		require.Len(t, errs, 1)
		assert.Equal(t, KindAmbiguousMatch, errs[0].Kind)
		require.Len(t, errs[0].Branches, 2)
		assert.Equal(t, KindType, errs[0].Branches[0][0].Kind)
	})

	t.Run("oneOf several is ambiguous", func(t *testing.T) {
		errs := Validate(5, schemas["Overlap"])
		require.Len(t, errs, 1)
		assert.Equal(t, KindAmbiguousMatch, errs[0].Kind)
		assert.Contains(t, errs[0].Message, "[0 1]")
		assert.Empty(t, errs[0].Branches)
	})

	t.Run("anyOf first match converts", func(t *testing.T) {
		got, errs := Convert(5.0, schemas["First"])
		require.Empty(t, errs)
		assert.Equal(t, int64(5), got)
	})

	t.Run("anyOf none", func(t *testing.T) {
		errs := Validate("x", schemas["First"])
		require.Len(t, errs, 1)
		assert.Equal(t, KindAmbiguousMatch, errs[0].Kind)
		assert.Len(t, errs[0].Branches, 2)
	})

	t.Run("not", func(t *testing.T) {
		assert.Empty(t, Validate(5, schemas["NotString"]))
		errs := Validate("x", schemas["NotString"])
		assert.Equal(t, []Kind{KindComposition}, issues.Kinds(errs))
	})
}

func TestDiscriminator(t *testing.T) {
	animal := petstoreSchemas(t)["Animal"]

	tests := []struct {
		name    string
		value   any
		kinds   []Kind
		pointer string
	}{
		{name: "implicit mapping", value: map[string]any{"petType": "Cat", "name": "Tom"}},
		{name: "explicit mapping", value: map[string]any{"petType": "doggo", "name": "Rex"}},
		{name: "selected branch errors", value: map[string]any{"petType": "Dog", "name": "Rex", "barks": "yes"}, kinds: []Kind{KindType}, pointer: "/barks"},
		{name: "missing property", value: map[string]any{"name": "Tom"}, kinds: []Kind{KindDiscriminator}, pointer: "/petType"},
		{name: "unknown value", value: map[string]any{"petType": "Fish", "name": "Nemo"}, kinds: []Kind{KindDiscriminator}, pointer: "/petType"},
		{name: "non-string value", value: map[string]any{"petType": 3}, kinds: []Kind{KindDiscriminator}, pointer: "/petType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.value, animal, WithDirection(Request))
			if len(tt.kinds) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.kinds, issues.Kinds(errs))
			assert.Equal(t, tt.pointer, errs[0].Pointer())
		})
	}
}

func TestPolymorphicDiscriminator(t *testing.T) {
	schemas := compileSchemas(t, `
Pet:
  type: object
  required: [petType]
  properties:
    petType:
      type: string
  discriminator:
    propertyName: petType
    mapping:
      kitty: Cat
      pet: Pet
Cat:
  allOf:
    - $ref: '#/components/schemas/Pet'
    - type: object
      required: [huntingSkill]
      properties:
        huntingSkill:
          type: string
Dog:
  allOf:
    - $ref: '#/components/schemas/Pet'
    - type: object
      properties:
        packSize:
          type: integer
          default: 1
`, "Pet", "Cat", "Dog")

	tests := []struct {
		name    string
		s       string
		value   any
		kinds   []Kind
		pointer string
	}{
		{name: "subtype requirements apply", s: "Pet", value: map[string]any{"petType": "Cat"}, kinds: []Kind{KindRequired}, pointer: "/huntingSkill"},
		{name: "subtype accepted", s: "Pet", value: map[string]any{"petType": "Cat", "huntingSkill": "lazy"}},
		{name: "explicit mapping", s: "Pet", value: map[string]any{"petType": "kitty"}, kinds: []Kind{KindRequired}, pointer: "/huntingSkill"},
		{name: "mapping to the base itself", s: "Pet", value: map[string]any{"petType": "pet"}},
		{name: "unknown value", s: "Pet", value: map[string]any{"petType": "Unknown"}, kinds: []Kind{KindDiscriminator}, pointer: "/petType"},
		{name: "missing property", s: "Pet", value: map[string]any{}, kinds: []Kind{KindDiscriminator}, pointer: "/petType"},
		{name: "subtype validated directly", s: "Cat", value: map[string]any{"petType": "Dog", "huntingSkill": "lazy"}},
		{name: "subtype base errors", s: "Dog", value: map[string]any{"petType": 1}, kinds: []Kind{KindType}, pointer: "/petType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.value, schemas[tt.s], WithDirection(Request))
			if len(tt.kinds) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.kinds, issues.Kinds(errs))
			assert.Equal(t, tt.pointer, errs[0].Pointer())
		})
	}

	t.Run("converted through the subtype", func(t *testing.T) {
		out, errs := Convert(map[string]any{"petType": "Dog"}, schemas["Pet"], WithDirection(Request))
		require.Empty(t, errs)
		assert.Equal(t, map[string]any{"petType": "Dog", "packSize": int64(1)}, out)
	})
}

func TestDiscriminatorResolvesOverlap(t *testing.T) {
	schemas := petstoreSchemas(t)
	value := map[string]any{"petType": "Cat", "name": "Tom"}

	plain := &schema.Schema{
		Kind:        schema.KindComposition,
		Composition: &schema.Composition{Kind: schema.OneOf, Branches: []*schema.Schema{schemas["Cat"], schemas["Dog"]}},
	}
	errs := Validate(value, plain)
	require.Len(t, errs, 1)
	assert.Equal(t, KindAmbiguousMatch, errs[0].Kind)

	assert.Empty(t, Validate(value, schemas["Animal"]))
}

func TestLocationOptions(t *testing.T) {
	s := compileOne(t, "N:\n  type: integer\n", "N")

	errs := Validate("x", s, WithLocation(issues.InQuery, "ids"), WithPath("1"))
	require.Len(t, errs, 1)
	assert.Equal(t, issues.InQuery, errs[0].In)
	assert.Equal(t, "ids", errs[0].Name)
	assert.Equal(t, "/1", errs[0].Pointer())
}

func TestUnsupportedGoValue(t *testing.T) {
	errs := Validate(struct{ A int }{A: 1}, schema.Any())
	require.Len(t, errs, 1)
	assert.Equal(t, KindType, errs[0].Kind)

	errs = Validate(make(chan int), schema.Any())
	assert.Equal(t, []Kind{KindType}, issues.Kinds(errs))
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "request", Request.String())
	assert.Equal(t, "response", Response.String())
}
