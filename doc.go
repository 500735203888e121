// Package oasbind binds HTTP requests and responses to the operations of an
// OpenAPI 3.0 document.
//
// A document is loaded once and compiled into an engine. For every operation
// the engine knows how to turn raw wire data (path segments, query strings,
// headers, cookies and bodies) into typed values, and how to turn typed
// response values back into an encoded body and headers. Every problem found
// on the way is reported, not just the first one.
//
// # Packages
//
//   - loader: parse a 3.0.x document and resolve its $ref graph
//   - schema: compile Schema Objects into a validation tree
//   - validate: check and coerce values against compiled schemas
//   - paramcodec: decode and encode parameters in every style
//   - bodycodec: decode and encode JSON, form, multipart and text bodies
//   - pipeline: the engine tying operations, parameters and bodies together
//   - httpadapter: net/http middleware on top of the engine
//   - oaserrors: error types returned for broken documents
//
// # Quick Start
//
// Compile a document and convert a request:
//
//	import "github.com/erraggy/oasbind/pipeline"
//
//	engine, err := pipeline.New(pipeline.WithFilePath("openapi.yaml"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	op, params, ok := engine.Find("GET", "/pets/42")
//	if !ok {
//		log.Fatal("no route")
//	}
//	res, err := engine.ConvertRequest(ctx, &pipeline.RawRequest{PathParams: params}, op)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if !res.Valid {
//		for _, e := range res.Errors {
//			fmt.Println(e)
//		}
//	}
//
// Render a response:
//
//	out, err := engine.RenderResponse(ctx, &pipeline.Output{Status: 200, Value: pet}, op)
//
// Serve an API through the middleware:
//
//	import "github.com/erraggy/oasbind/httpadapter"
//
//	adapter, err := httpadapter.New(engine)
//	if err != nil {
//		log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", adapter.Middleware(handler))
//
// Inside the handler, [httpadapter.FromContext] returns the converted request
// and [httpadapter.Adapter.Respond] validates and writes the response.
//
// # Command-Line Tool
//
// The oasbind command compiles documents, converts requests and renders
// responses from the shell, and runs an MCP server exposing the same
// operations as tools:
//
//	oasbind check openapi.yaml
//	oasbind request -X POST -d '{"name":"rex"}' openapi.yaml /pets
//	oasbind render -op getPet -d '{"id":1,"name":"rex"}' openapi.yaml
//	oasbind mcp
package oasbind
