package loader

import (
	"io"

	"github.com/erraggy/oasbind/internal/options"
	"github.com/erraggy/oasbind/oaserrors"
)

const (
	// DefaultMaxRefDepth is the maximum number of hops followed through a
	// ref-to-ref chain before resolution fails.
	DefaultMaxRefDepth = 100

	// DefaultMaxFileSize is the maximum size in bytes of any loaded file.
	DefaultMaxFileSize = 10 * 1024 * 1024
)

// HTTPFetcher fetches content from an HTTP/HTTPS URL.
// It returns the response body, the content-type header, and any error.
type HTTPFetcher func(url string) ([]byte, string, error)

// Option configures a Load call.
type Option func(*config) error

type config struct {
	// Input source (exactly one must be set)
	filePath *string
	reader   io.Reader
	bytes    []byte

	sourceName  string
	baseDir     string
	logger      Logger
	fetcher     HTTPFetcher
	maxRefDepth int
	maxFileSize int64
}

func defaultConfig() *config {
	return &config{
		logger:      NopLogger{},
		maxRefDepth: DefaultMaxRefDepth,
		maxFileSize: DefaultMaxFileSize,
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
		[]string{"WithFilePath", "WithReader", "WithBytes"},
		cfg.filePath != nil, cfg.reader != nil, cfg.bytes != nil,
	); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithFilePath specifies a file path as the input source.
// Relative references resolve against the file's directory.
func WithFilePath(path string) Option {
	return func(cfg *config) error {
		if path == "" {
			return &oaserrors.ConfigError{Option: "filePath", Message: "cannot be empty"}
		}
		cfg.filePath = &path
		return nil
	}
}

// WithReader specifies an io.Reader as the input source.
// name identifies the source in errors; it may be empty.
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

// WithBytes specifies a byte slice as the input source.
// name identifies the source in errors; it may be empty.
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

// WithBaseDir sets the directory that file references resolve against and
// must stay inside. It defaults to the directory of the input file, or the
// working directory for reader and byte sources.
func WithBaseDir(dir string) Option {
	return func(cfg *config) error {
		cfg.baseDir = dir
		return nil
	}
}

// WithLogger sets a structured logger. By default nothing is logged.
func WithLogger(l Logger) Option {
	return func(cfg *config) error {
		if l != nil {
			cfg.logger = l
		}
		return nil
	}
}

// WithHTTPFetcher enables http(s) references, fetched through f.
// HTTP references fail with a ReferenceError when no fetcher is set.
func WithHTTPFetcher(f HTTPFetcher) Option {
	return func(cfg *config) error {
		cfg.fetcher = f
		return nil
	}
}

// WithMaxRefDepth sets the maximum number of hops in a ref-to-ref chain.
// A value of 0 means use the default (100).
func WithMaxRefDepth(depth int) Option {
	return func(cfg *config) error {
		if err := options.NonNegative("maxRefDepth", depth); err != nil {
			return err
		}
		cfg.maxRefDepth = options.OrDefault(depth, DefaultMaxRefDepth)
		return nil
	}
}

// WithMaxFileSize sets the maximum size in bytes of the input and of every
// referenced file. A value of 0 means use the default (10MB).
func WithMaxFileSize(size int64) Option {
	return func(cfg *config) error {
		if err := options.NonNegative("maxFileSize", size); err != nil {
			return err
		}
		cfg.maxFileSize = options.OrDefault(size, int64(DefaultMaxFileSize))
		return nil
	}
}
