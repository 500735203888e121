// Package pipeline compiles the operations of an OpenAPI 3.0 document and
// binds requests and responses to them.
//
// New is the single initialization step: it loads the document, compiles
// every parameter, body and response schema, and fails on the first startup
// error. The returned Engine is immutable and safe for concurrent use.
//
//	engine, err := pipeline.New(pipeline.WithFilePath("openapi.yaml"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	op, params, ok := engine.Find(r.Method, r.URL.EscapedPath())
//	...
//	res, err := engine.ConvertRequest(ctx, &pipeline.RawRequest{
//		PathParams: params,
//		Query:      r.URL.Query(),
//		Header:     r.Header,
//		Body:       body,
//	}, op)
//	if !res.Valid {
//		// res.Errors lists every problem found
//	}
//
// ConvertRequest processes parameters in path, query, header, cookie order
// and then the body, collecting every error. RenderResponse selects the
// response declared for the status (exact code, then range such as "2XX",
// then "default"), validates the value in the response direction and
// encodes it together with its declared headers.
//
// Typed Go values are accepted on output: structs render through their JSON
// encoding, time.Time as RFC 3339 (or a date for format date), uuid.UUID as
// its string and []byte as base64 for format byte.
//
// An Engine can record Prometheus metrics (see NewMetrics and WithMetrics)
// and OpenTelemetry spans named "oasbind.ConvertRequest" and
// "oasbind.RenderResponse" (see WithTracerProvider).
package pipeline
