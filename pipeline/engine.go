package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erraggy/oasbind/internal/httputil"
	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/loader"
	"github.com/erraggy/oasbind/oaserrors"
	"github.com/erraggy/oasbind/schema"
)

// ValidationError describes one problem with a request or response.
type ValidationError = issues.Issue

// TracerName is the instrumentation name of the engine's spans.
const TracerName = "github.com/erraggy/oasbind/pipeline"

// Binder converts requests and renders responses for compiled operations.
// The error return is reserved for misuse; invalid data is reported in the
// result.
type Binder interface {
	ConvertRequest(ctx context.Context, req *RawRequest, op *Operation) (*RequestResult, error)
	RenderResponse(ctx context.Context, out *Output, op *Operation) (*ResponseResult, error)
}

var _ Binder = (*Engine)(nil)

// Engine holds every compiled operation of one document. It is immutable
// and safe for concurrent use.
type Engine struct {
	doc        *loader.Document
	operations []*Operation
	byID       map[string]*Operation
	routes     []*route
	warnings   []schema.Warning

	maxBodySize int64
	logger      loader.Logger
	metrics     *Metrics
	tracer      trace.Tracer
}

// New loads a document and compiles all of its operations.
//
// Exactly one source option must be given (WithFilePath, WithReader,
// WithBytes or WithDocument). Any load or compile failure is returned as
// one of the oaserrors types, wrapped.
func New(opts ...Option) (*Engine, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: invalid options: %w", err)
	}

	doc := cfg.document
	if doc == nil {
		doc, err = loader.Load(cfg.loadOptions()...)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}

	compiler := schema.NewCompiler(doc,
		schema.WithMaxDepth(cfg.maxSchemaDepth),
		schema.WithLogger(cfg.logger),
	)
	e := &Engine{
		doc:         doc,
		byID:        make(map[string]*Operation),
		maxBodySize: cfg.maxBodySize,
		logger:      cfg.logger,
		metrics:     cfg.metrics,
		tracer:      cfg.tracerProvider.Tracer(TracerName),
	}
	b := &builder{doc: doc, compiler: compiler, logger: cfg.logger}
	if err := e.build(b); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	e.warnings = compiler.Warnings()

	cfg.logger.Info("engine built",
		"operations", len(e.operations),
		"paths", len(e.routes),
		"warnings", len(e.warnings),
	)
	return e, nil
}

func (e *Engine) build(b *builder) error {
	paths := e.doc.Get(e.doc.Root(), "paths")
	for _, template := range e.doc.Keys(paths) {
		if strings.HasPrefix(template, "x-") {
			continue
		}
		r, err := newRoute(template)
		if err != nil {
			return &oaserrors.DocumentError{Path: e.doc.Pointer(paths), Message: err.Error()}
		}
		item := e.doc.Get(paths, template)
		for _, method := range httputil.Methods {
			id := e.doc.Get(item, method)
			if id == loader.NoNode {
				continue
			}
			op, err := b.operation(method, template, item, id)
			if err != nil {
				return fmt.Errorf("operation %s %s: %w", strings.ToUpper(method), template, err)
			}
			if _, dup := e.byID[op.ID]; dup {
				return &oaserrors.DocumentError{
					Path:    e.doc.Pointer(id),
					Message: fmt.Sprintf("duplicate operationId %q", op.ID),
				}
			}
			e.byID[op.ID] = op
			e.operations = append(e.operations, op)
			r.methods[op.Method] = op
		}
		e.routes = append(e.routes, r)
	}
	sortRoutes(e.routes)
	return nil
}

// Operation returns the operation with the given operationId.
func (e *Engine) Operation(id string) (*Operation, bool) {
	op, ok := e.byID[id]
	return op, ok
}

// Operations returns every operation in document order.
func (e *Engine) Operations() []*Operation {
	out := make([]*Operation, len(e.operations))
	copy(out, e.operations)
	return out
}

// Find returns the operation serving method on path, with the decoded path
// parameter values. Concrete templates win over templated ones, so
// "/pets/mine" is preferred to "/pets/{petId}".
func (e *Engine) Find(method, path string) (*Operation, map[string]string, bool) {
	method = strings.ToUpper(method)
	for _, r := range e.routes {
		op := r.methods[method]
		if op == nil {
			continue
		}
		raw, ok := r.match(path)
		if !ok {
			continue
		}
		params := make(map[string]string, len(raw))
		for k, v := range raw {
			if u, err := url.PathUnescape(v); err == nil {
				v = u
			}
			params[k] = v
		}
		return op, params, true
	}
	return nil, nil, false
}

// Warnings returns the schema constructs that compiled but are ignored.
func (e *Engine) Warnings() []schema.Warning {
	return e.warnings
}

// Document returns the loaded document.
func (e *Engine) Document() *loader.Document {
	return e.doc
}

func (e *Engine) startSpan(ctx context.Context, name string, op *Operation) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("oasbind.operation", op.ID),
		attribute.String("http.method", op.Method),
		attribute.String("http.route", op.Path),
	))
}

// finish records the outcome of one call on its span and in the metrics.
func (e *Engine) finish(span trace.Span, op *Operation, direction string, errs []ValidationError, start time.Time) {
	span.SetAttributes(
		attribute.Bool("oasbind.valid", len(errs) == 0),
		attribute.Int("oasbind.error_count", len(errs)),
	)
	if len(errs) > 0 {
		span.SetAttributes(attribute.StringSlice("oasbind.error_kinds", errorKinds(errs)))
		span.SetStatus(codes.Error, fmt.Sprintf("%d validation errors", len(errs)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	e.metrics.observe(op.ID, direction, errs, time.Since(start))
}
