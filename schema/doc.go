// Package schema compiles OpenAPI 3.0 schema objects into immutable Schema
// descriptors.
//
// A compiled [Schema] is a tagged variant: its [Kind] is one of Any,
// Primitive, Array, Object or Composition. Compositions hold their branches
// and, when the composed node also carries its own keywords (type,
// properties, ...), a Base schema that must pass as well. allOf branches are
// validated independently; nothing is merged.
//
// A node that combines several of allOf, anyOf, oneOf and not compiles into
// an allOf over one composition per keyword, in that order.
//
// # Discriminators
//
// A discriminator on a oneOf or anyOf node compiles into a map from
// discriminator value to branch schema. Every $ref branch is mapped under the
// last segment of its reference (#/components/schemas/Cat maps "Cat"), or
// under the file name without extension for a whole-file reference (cat.yaml
// maps "cat"). Explicit mapping entries override those names; a mapping value
// that is a bare name refers to #/components/schemas/<name>.
//
// A discriminator on any other schema is polymorphic: every component schema
// whose first allOf branch references it is mapped under its component name.
//
// # Formats
//
// The format registry checks int32, int64, float, double, byte, binary, date,
// date-time, password, email, uuid, uri, ipv4, ipv6 and hostname. The date,
// date-time and byte formats also convert request strings into time.Time and
// []byte. [RegisterFormat] adds formats; the compiler resolves them into
// [Schema.FormatRules]. Unknown formats compile with a [Warning] and are not
// checked.
package schema
