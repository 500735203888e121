// Package httpadapter binds a pipeline engine to net/http.
//
// Middleware finds the operation for each request, converts it and stores
// the result in the request context. Handlers read it with FromContext and
// answer through Respond, which validates and encodes the response:
//
//	a, err := httpadapter.New(engine, httpadapter.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	mux.Handle("/", a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//		req, _ := httpadapter.FromContext(r.Context())
//		a.Respond(w, r, http.StatusOK, lookup(req.Path["petId"]))
//	})))
//
// Rejected requests get a JSON body listing every validation error: 404 for
// an unknown route, 415 when only the media type was wrong, 413 for an
// oversize body and 400 otherwise. A response that fails validation is
// replaced by a 500.
package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/erraggy/oasbind/internal/issues"
	"github.com/erraggy/oasbind/internal/options"
	"github.com/erraggy/oasbind/loader"
	"github.com/erraggy/oasbind/oaserrors"
	"github.com/erraggy/oasbind/pipeline"
)

// Engine is the part of *pipeline.Engine the adapter needs.
type Engine interface {
	pipeline.Binder
	Find(method, path string) (*pipeline.Operation, map[string]string, bool)
}

// Option configures an Adapter.
type Option func(*config) error

type config struct {
	logger      loader.Logger
	maxBodySize int64
	errorLimit  int
}

func defaultConfig() *config {
	return &config{
		logger:      loader.NopLogger{},
		maxBodySize: pipeline.DefaultMaxBodySize,
	}
}

// WithLogger sets the logger for rejected requests and failed responses.
func WithLogger(l loader.Logger) Option {
	return func(cfg *config) error {
		if l != nil {
			cfg.logger = l
		}
		return nil
	}
}

// WithMaxBodySize bounds how much of a request body is read. It should
// match the engine's limit. A value of 0 means use the default (10MB).
func WithMaxBodySize(size int64) Option {
	return func(cfg *config) error {
		if err := options.NonNegative("maxBodySize", size); err != nil {
			return err
		}
		cfg.maxBodySize = options.OrDefault(size, int64(pipeline.DefaultMaxBodySize))
		return nil
	}
}

// WithErrorLimit caps the number of errors written in a rejection body.
// A value of 0 writes them all.
func WithErrorLimit(n int) Option {
	return func(cfg *config) error {
		if err := options.NonNegative("errorLimit", n); err != nil {
			return err
		}
		cfg.errorLimit = n
		return nil
	}
}

// Adapter serves an engine over net/http. It is safe for concurrent use.
type Adapter struct {
	engine Engine
	cfg    *config
}

// New returns an Adapter for engine.
func New(engine Engine, opts ...Option) (*Adapter, error) {
	if engine == nil {
		return nil, &oaserrors.ConfigError{Option: "engine", Message: "cannot be nil"}
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("httpadapter: invalid options: %w", err)
		}
	}
	return &Adapter{engine: engine, cfg: cfg}, nil
}

type contextKey struct{}

type binding struct {
	op  *pipeline.Operation
	req *pipeline.ConvertedRequest
}

// FromContext returns the converted request stored by Middleware.
func FromContext(ctx context.Context) (*pipeline.ConvertedRequest, bool) {
	b, ok := ctx.Value(contextKey{}).(*binding)
	if !ok {
		return nil, false
	}
	return b.req, true
}

// OperationFromContext returns the operation Middleware matched.
func OperationFromContext(ctx context.Context) (*pipeline.Operation, bool) {
	b, ok := ctx.Value(contextKey{}).(*binding)
	if !ok {
		return nil, false
	}
	return b.op, true
}

// ErrorBody is the JSON body written for rejected requests and failed
// responses.
type ErrorBody struct {
	Status  int                        `json:"status"`
	Message string                     `json:"message"`
	Errors  []pipeline.ValidationError `json:"errors,omitempty"`
}

// Middleware converts each request before passing it to next. The request
// body is restored so next may read it again.
func (a *Adapter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op, params, ok := a.engine.Find(r.Method, r.URL.EscapedPath())
		if !ok {
			a.reject(w, r, http.StatusNotFound, fmt.Sprintf("no operation matches %s %s", r.Method, r.URL.Path), nil)
			return
		}

		var body []byte
		if r.Body != nil {
			data, err := io.ReadAll(io.LimitReader(r.Body, a.cfg.maxBodySize+1))
			_ = r.Body.Close()
			if err != nil {
				a.reject(w, r, http.StatusBadRequest, "cannot read request body: "+err.Error(), nil)
				return
			}
			body = data
		}

		cookies := make(map[string]string)
		for _, c := range r.Cookies() {
			if _, seen := cookies[c.Name]; !seen {
				cookies[c.Name] = c.Value
			}
		}

		res, err := a.engine.ConvertRequest(r.Context(), &pipeline.RawRequest{
			PathParams:  params,
			Query:       r.URL.Query(),
			Header:      r.Header,
			Cookies:     cookies,
			Body:        body,
			ContentType: r.Header.Get("Content-Type"),
		}, op)
		if err != nil {
			a.cfg.logger.Error("request conversion failed", "operation", op.ID, "error", err)
			a.reject(w, r, http.StatusInternalServerError, "internal error", nil)
			return
		}
		if !res.Valid {
			a.reject(w, r, rejectionStatus(res.Errors), "request validation failed", res.Errors)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		ctx := context.WithValue(r.Context(), contextKey{}, &binding{op: op, req: res.Request})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func rejectionStatus(errs []pipeline.ValidationError) int {
	switch {
	case issues.OnlyKind(errs, issues.KindUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case issues.OnlyKind(errs, issues.KindBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// Respond renders value as the response for status.
func (a *Adapter) Respond(w http.ResponseWriter, r *http.Request, status int, value any) {
	a.RespondOutput(w, r, &pipeline.Output{Status: status, Value: value})
}

// RespondOutput renders out, which may name a content type and headers.
// The request must have passed through Middleware. When rendering fails
// the errors are logged and a 500 is written instead.
func (a *Adapter) RespondOutput(w http.ResponseWriter, r *http.Request, out *pipeline.Output) {
	op, ok := OperationFromContext(r.Context())
	if !ok {
		a.cfg.logger.Error("respond called without a matched operation", "path", r.URL.Path)
		a.writeError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	res, err := a.engine.RenderResponse(r.Context(), out, op)
	if err != nil || !res.Valid {
		attrs := []any{"operation", op.ID, "status", out.Status}
		if err != nil {
			attrs = append(attrs, "error", err)
		} else {
			attrs = append(attrs, "errors", len(res.Errors), "first", res.Errors[0].String())
		}
		a.cfg.logger.Error("response rendering failed", attrs...)
		a.writeError(w, http.StatusInternalServerError, "response validation failed", nil)
		return
	}

	resp := res.Response
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			a.cfg.logger.Debug("response write failed", "operation", op.ID, "error", err)
		}
	}
}

func (a *Adapter) reject(w http.ResponseWriter, r *http.Request, status int, message string, errs []pipeline.ValidationError) {
	a.cfg.logger.Info("request rejected",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"errors", len(errs),
	)
	a.writeError(w, status, message, errs)
}

func (a *Adapter) writeError(w http.ResponseWriter, status int, message string, errs []pipeline.ValidationError) {
	if a.cfg.errorLimit > 0 && len(errs) > a.cfg.errorLimit {
		errs = errs[:a.cfg.errorLimit]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Status: status, Message: message, Errors: errs})
}
