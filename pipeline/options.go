package pipeline

import (
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/erraggy/oasbind/internal/options"
	"github.com/erraggy/oasbind/loader"
	"github.com/erraggy/oasbind/oaserrors"
	"github.com/erraggy/oasbind/schema"
)

// DefaultMaxBodySize is the largest request body accepted, in bytes.
const DefaultMaxBodySize = 10 * 1024 * 1024

// Option configures New.
type Option func(*config) error

type config struct {
	// Input source (exactly one must be set)
	filePath *string
	reader   io.Reader
	bytes    []byte
	document *loader.Document

	sourceName     string
	loaderOpts     []loader.Option
	logger         loader.Logger
	maxSchemaDepth int
	maxBodySize    int64
	metrics        *Metrics
	tracerProvider trace.TracerProvider
}

func defaultConfig() *config {
	return &config{
		logger:         loader.NopLogger{},
		maxSchemaDepth: schema.DefaultMaxDepth,
		maxBodySize:    DefaultMaxBodySize,
	}
}

func applyOptions(opts ...Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := options.SingleSource(
		[]string{"WithFilePath", "WithReader", "WithBytes", "WithDocument"},
		cfg.filePath != nil, cfg.reader != nil, cfg.bytes != nil, cfg.document != nil,
	); err != nil {
		return nil, err
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}
	return cfg, nil
}

// loadOptions returns the loader options for the configured source.
func (cfg *config) loadOptions() []loader.Option {
	opts := []loader.Option{loader.WithLogger(cfg.logger)}
	switch {
	case cfg.filePath != nil:
		opts = append(opts, loader.WithFilePath(*cfg.filePath))
	case cfg.reader != nil:
		opts = append(opts, loader.WithReader(cfg.reader, cfg.sourceName))
	case cfg.bytes != nil:
		opts = append(opts, loader.WithBytes(cfg.bytes, cfg.sourceName))
	}
	return append(opts, cfg.loaderOpts...)
}

// WithFilePath loads the document from a file.
func WithFilePath(path string) Option {
	return func(cfg *config) error {
		if path == "" {
			return &oaserrors.ConfigError{Option: "filePath", Message: "cannot be empty"}
		}
		cfg.filePath = &path
		return nil
	}
}

// WithReader loads the document from r. name identifies it in errors.
func WithReader(r io.Reader, name string) Option {
	return func(cfg *config) error {
		if r == nil {
			return &oaserrors.ConfigError{Option: "reader", Message: "cannot be nil"}
		}
		cfg.reader = r
		cfg.sourceName = name
		return nil
	}
}

// WithBytes loads the document from data. name identifies it in errors.
func WithBytes(data []byte, name string) Option {
	return func(cfg *config) error {
		if data == nil {
			return &oaserrors.ConfigError{Option: "bytes", Message: "cannot be nil"}
		}
		cfg.bytes = data
		cfg.sourceName = name
		return nil
	}
}

// WithDocument builds the engine from an already loaded document.
func WithDocument(doc *loader.Document) Option {
	return func(cfg *config) error {
		if doc == nil {
			return &oaserrors.ConfigError{Option: "document", Message: "cannot be nil"}
		}
		cfg.document = doc
		return nil
	}
}

// WithLoaderOptions passes extra options to loader.Load, such as
// loader.WithHTTPFetcher or loader.WithMaxRefDepth. They are ignored when
// the document is given with WithDocument.
func WithLoaderOptions(opts ...loader.Option) Option {
	return func(cfg *config) error {
		cfg.loaderOpts = append(cfg.loaderOpts, opts...)
		return nil
	}
}

// WithLogger sets the logger shared by loading, compilation and the engine.
func WithLogger(l loader.Logger) Option {
	return func(cfg *config) error {
		if l != nil {
			cfg.logger = l
		}
		return nil
	}
}

// WithMaxSchemaDepth sets the maximum schema nesting. A value of 0 means use
// the default (64).
func WithMaxSchemaDepth(depth int) Option {
	return func(cfg *config) error {
		if err := options.NonNegative("maxSchemaDepth", depth); err != nil {
			return err
		}
		cfg.maxSchemaDepth = options.OrDefault(depth, schema.DefaultMaxDepth)
		return nil
	}
}

// WithMaxBodySize sets the largest request body accepted, in bytes.
// A value of 0 means use the default (10MB).
func WithMaxBodySize(size int64) Option {
	return func(cfg *config) error {
		if err := options.NonNegative("maxBodySize", size); err != nil {
			return err
		}
		cfg.maxBodySize = options.OrDefault(size, int64(DefaultMaxBodySize))
		return nil
	}
}

// WithMetrics records conversion metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(cfg *config) error {
		cfg.metrics = m
		return nil
	}
}

// WithTracerProvider sets the provider spans are created from. It defaults
// to the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) error {
		cfg.tracerProvider = tp
		return nil
	}
}
