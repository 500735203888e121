// Package oaserrors provides structured startup error types for oasbind.
//
// Every error in this package is fatal: an engine must not serve traffic with a
// document that failed to load or compile. Request-time problems are never
// Go errors; they are returned as data (see the validate package).
//
// # Error Categories
//
//   - DocumentError: YAML/JSON syntax failures and structural issues
//   - ReferenceError: $ref targets that do not exist or cannot be fetched
//   - SchemaError: schema nodes that cannot be compiled
//   - UnsupportedFeatureError: document features the engine refuses (XML media types)
//   - ResourceLimitError: resolution or compilation depth, file size
//   - ConfigError: invalid options
package oaserrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrDocument indicates a malformed specification document.
	ErrDocument = errors.New("document error")

	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrPathTraversal indicates a file reference escaped the base directory.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrSchema indicates a schema that could not be compiled.
	ErrSchema = errors.New("schema error")

	// ErrUnsupported indicates a document feature the engine does not support.
	ErrUnsupported = errors.New("unsupported feature")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// DocumentError represents a failure to parse or accept a specification document.
type DocumentError struct {
	// Path is the file path or source identifier
	Path string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column int
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *DocumentError) Error() string {
	msg := "document error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *DocumentError) Is(target error) bool {
	return target == ErrDocument
}

// ReferenceError represents a failure to resolve a $ref.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// RefType indicates the reference type: "local", "file", or "http"
	RefType string
	// Source is the document containing the reference
	Source string
	// Line is the line of the $ref node (0 if unknown)
	Line int
	// IsPathTraversal is true if the reference escaped the base directory
	IsPathTraversal bool
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.IsPathTraversal {
		msg = "path traversal detected"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Source != "" {
		msg += " in " + e.Source
		if e.Line > 0 {
			msg += fmt.Sprintf(" at line %d", e.Line)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Also matches ErrPathTraversal when IsPathTraversal is set.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrReference {
		return true
	}
	return target == ErrPathTraversal && e.IsPathTraversal
}

// SchemaError represents a schema node that cannot be compiled.
type SchemaError struct {
	// Pointer locates the offending schema node (e.g., "api.yaml#/components/schemas/Pet")
	Pointer string
	// Keyword is the schema keyword at fault (optional)
	Keyword string
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *SchemaError) Error() string {
	msg := "schema error"
	if e.Pointer != "" {
		msg += " at " + e.Pointer
	}
	if e.Keyword != "" {
		msg += fmt.Sprintf(" (%s)", e.Keyword)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// UnsupportedFeatureError represents a document feature the engine refuses to serve.
type UnsupportedFeatureError struct {
	// Feature names what is unsupported (e.g., "xml media type")
	Feature string
	// Pointer locates where the feature was declared
	Pointer string
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *UnsupportedFeatureError) Error() string {
	msg := "unsupported feature"
	if e.Feature != "" {
		msg += ": " + e.Feature
	}
	if e.Pointer != "" {
		msg += " at " + e.Pointer
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *UnsupportedFeatureError) Is(target error) bool {
	return target == ErrUnsupported
}

// ResourceLimitError represents exceeding a resource limit.
//
// Reference cycles are not detected; a cyclic document surfaces as a
// ResourceLimitError with ResourceType "ref_depth" (ref-to-ref chains) or
// "schema_depth" (cycles through properties or items).
type ResourceLimitError struct {
	// ResourceType identifies the limited resource: "ref_depth", "schema_depth", "file_size"
	ResourceType string
	// Limit is the maximum allowed value
	Limit int64
	// Actual is the value that exceeded the limit (0 if unknown)
	Actual int64
	// Pointer locates where the limit was hit (optional)
	Pointer string
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := fmt.Sprintf("resource limit exceeded: %s", e.ResourceType)
	if e.Actual > 0 {
		msg += fmt.Sprintf(" (%d > %d)", e.Actual, e.Limit)
	} else {
		msg += fmt.Sprintf(" (limit %d)", e.Limit)
	}
	if e.Pointer != "" {
		msg += " at " + e.Pointer
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
// A schema_depth limit is a compilation failure, so it also matches ErrSchema.
func (e *ResourceLimitError) Is(target error) bool {
	if target == ErrResourceLimit {
		return true
	}
	return target == ErrSchema && e.ResourceType == "schema_depth"
}

// ConfigError represents an invalid configuration or option value.
type ConfigError struct {
	// Option is the name of the invalid option
	Option string
	// Value is the invalid value (optional)
	Value any
	// Message describes what is wrong
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Option != "" {
		msg += ": " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
