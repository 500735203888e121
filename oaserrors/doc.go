// Package oaserrors provides structured error types for the oasbind library.
//
// Import path: github.com/erraggy/oasbind/oaserrors
//
// # Error Types
//
//   - [DocumentError]: malformed YAML/JSON, missing or unsupported openapi version
//   - [ReferenceError]: $ref targets that cannot be resolved, path traversal
//   - [SchemaError]: schema nodes that cannot be compiled
//   - [UnsupportedFeatureError]: XML media types and other refused features
//   - [ResourceLimitError]: reference depth, schema depth, file size
//   - [ConfigError]: invalid options
//
// # Sentinel Errors
//
//   - [ErrDocument]: Matches any [DocumentError]
//   - [ErrReference]: Matches any [ReferenceError]
//   - [ErrPathTraversal]: Matches [ReferenceError] with IsPathTraversal=true
//   - [ErrSchema]: Matches any [SchemaError] and schema_depth [ResourceLimitError]
//   - [ErrUnsupported]: Matches any [UnsupportedFeatureError]
//   - [ErrResourceLimit]: Matches any [ResourceLimitError]
//   - [ErrConfig]: Matches any [ConfigError]
//
// # Usage
//
//	engine, err := pipeline.New(pipeline.WithFilePath("api.yaml"))
//	if errors.Is(err, oaserrors.ErrResourceLimit) {
//	    // most likely a reference cycle
//	}
//
//	var refErr *oaserrors.ReferenceError
//	if errors.As(err, &refErr) {
//	    fmt.Printf("unresolved ref %s in %s\n", refErr.Ref, refErr.Source)
//	}
//
// Request-time failures (missing parameters, type mismatches, undeclared
// responses) are not errors in this sense. They are reported as
// [github.com/erraggy/oasbind/validate.ValidationError] values.
package oaserrors
