// Package loader parses an OpenAPI 3.0 document into an immutable node arena
// and resolves every $ref eagerly.
//
// # Overview
//
// JSON and YAML sources are both decoded into yaml.Node trees and copied into
// a flat arena of [Node] values addressed by [NodeID]. Each node remembers its
// source file, line, column and JSON pointer, so later stages can report
// errors against the document.
//
// Every $ref node keeps its reference text and carries the resolved target in
// [Node.Target]. Readers see through references with [Document.Deref].
// Ref-to-ref chains are followed at load time; a chain that does not settle
// within the configured depth fails with an
// [oaserrors.ResourceLimitError] of type "ref_depth".
//
// Reference cycles that pass through schema keywords such as properties or
// items are legal at load time. They are not detected here and surface when
// the schema compiler exceeds its depth limit.
//
// # Usage
//
//	doc, err := loader.Load(loader.WithFilePath("openapi.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pets := doc.Get(doc.Root(), "paths")
//
// External file references are resolved relative to the referring file and
// must stay inside the base directory. HTTP references are refused unless an
// [HTTPFetcher] is configured with [WithHTTPFetcher].
package loader
