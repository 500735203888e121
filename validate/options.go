package validate

import "github.com/erraggy/oasbind/internal/pathutil"

// Direction selects the readOnly/writeOnly rules.
type Direction uint8

const (
	// None applies no readOnly/writeOnly rules and fills no defaults.
	None Direction = iota
	// Request rejects readOnly properties and fills defaults.
	Request
	// Response rejects writeOnly properties.
	Response
)

// String returns "none", "request" or "response".
func (d Direction) String() string {
	switch d {
	case Request:
		return "request"
	case Response:
		return "response"
	default:
		return "none"
	}
}

// Option configures a Validate or Convert call.
type Option func(*config)

type config struct {
	direction Direction
	path      []string
	in        string
	name      string
}

func applyOptions(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithDirection sets the direction. The default is None.
func WithDirection(d Direction) Option {
	return func(cfg *config) {
		cfg.direction = d
	}
}

// WithPath prefixes every error path with segments.
func WithPath(segments ...string) Option {
	return func(cfg *config) {
		cfg.path = pathutil.Append(cfg.path, segments...)
	}
}

// WithLocation sets the location (path, query, header, cookie, body or
// response) and the parameter name reported on every error.
func WithLocation(in, name string) Option {
	return func(cfg *config) {
		cfg.in = in
		cfg.name = name
	}
}
