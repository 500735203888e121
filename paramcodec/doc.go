// Package paramcodec decodes and encodes OpenAPI 3.0 parameters.
//
// Decoding runs in three stages: the raw strings of a parameter are
// extracted according to its style, shaped into a primitive, array or
// object following the schema's effective type, and coerced from strings
// into int64, float64 or bool. The shaped value is then converted by the
// validate package. A value that cannot be coerced is left as a string so
// the validator reports a type error.
//
// # Styles
//
//	| Style          | In           | Primitive | Array               | Object          | Object (explode) |
//	|----------------|--------------|-----------|---------------------|-----------------|------------------|
//	| simple         | path, header | v         | a,b                 | k,v,k,v         | k=v,k=v          |
//	| label          | path         | .v        | .a,b  (.a.b)        | .k,v,k,v        | .k=v.k=v         |
//	| matrix         | path         | ;n=v      | ;n=a,b (;n=a;n=b)   | ;n=k,v          | ;k=v;k=v         |
//	| form           | query,cookie | n=v       | n=a,b  (n=a&n=b)    | n=k,v,k,v       | k=v&k=v          |
//	| spaceDelimited | query        |           | a b   (as form)     |                 |                  |
//	| pipeDelimited  | query        |           | a|b   (as form)     |                 |                  |
//	| deepObject     | query        |           |                     |                 | n[k]=v           |
//
// Cookie arrays and objects are always comma-joined. Reserved characters
// are passed through unchanged.
//
// # Usage
//
//	p := &paramcodec.Parameter{In: "query", Name: "ids", Style: paramcodec.StyleForm, Explode: true, Schema: ids}
//	v, errs := paramcodec.Decode(paramcodec.Values(r.URL.Query()), p)
//	// v == []any{int64(1), int64(2), int64(3)} for ?ids=1&ids=2&ids=3
package paramcodec
