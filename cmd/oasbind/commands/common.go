// Package commands provides CLI command handlers for oasbind.
package commands

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasbind"
	"github.com/erraggy/oasbind/internal/httputil"
	"github.com/erraggy/oasbind/loader"
	"github.com/erraggy/oasbind/pipeline"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ErrInvalid is returned after a command has reported validation errors.
var ErrInvalid = errors.New("validation failed")

// Stdout, Stderr and Stdin are the streams commands use. Tests replace them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
	Stdin  io.Reader = os.Stdin
)

// ValidateOutputFormat validates an output format and returns an error if invalid.
func ValidateOutputFormat(format string) error {
	if format != FormatText && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
	return nil
}

// OutputStructured writes data to w in the specified format (json or yaml).
func OutputStructured(w io.Writer, data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case FormatJSON:
		bytes, err = json.MarshalIndent(data, "", "  ")
		bytes = append(bytes, '\n')
	case FormatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}
	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}

	_, err = w.Write(bytes)
	return err
}

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr.
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// FormatSpecPath returns a display-friendly path for the specification.
func FormatSpecPath(specPath string) string {
	if specPath == StdinFilePath {
		return "<stdin>"
	}
	return specPath
}

// NewLogger returns a text logger on Stderr. Only warnings are shown unless
// verbose is set.
func NewLogger(verbose bool) loader.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return loader.NewSlogAdapter(slog.New(slog.NewTextHandler(Stderr, &slog.HandlerOptions{Level: level})))
}

// engineFlags are shared by every command that loads a document.
type engineFlags struct {
	maxRefDepth    int
	maxSchemaDepth int
	maxBodySize    int64
	remoteRefs     bool
	verbose        bool
}

func (f *engineFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.maxRefDepth, "max-ref-depth", 0, "maximum $ref chain length (0 = default)")
	fs.IntVar(&f.maxSchemaDepth, "max-schema-depth", 0, "maximum schema nesting depth (0 = default)")
	fs.Int64Var(&f.maxBodySize, "max-body-size", 0, "maximum request body size in bytes (0 = default)")
	fs.BoolVar(&f.remoteRefs, "remote-refs", false, "allow http(s) references to public hosts")
	fs.BoolVar(&f.verbose, "v", false, "log debug output to stderr")
}

// engine builds a pipeline engine for specPath, reading stdin for "-".
func (f *engineFlags) engine(specPath string) (*pipeline.Engine, error) {
	logger := NewLogger(f.verbose)

	loaderOpts := []loader.Option{loader.WithMaxRefDepth(f.maxRefDepth)}
	if f.remoteRefs {
		loaderOpts = append(loaderOpts, loader.WithHTTPFetcher(
			httputil.NewFetcher(httputil.NewSafeClient(), oasbind.UserAgent(), loader.DefaultMaxFileSize),
		))
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithLoaderOptions(loaderOpts...),
		pipeline.WithMaxSchemaDepth(f.maxSchemaDepth),
		pipeline.WithMaxBodySize(f.maxBodySize),
	}
	if specPath == StdinFilePath {
		opts = append(opts, pipeline.WithReader(Stdin, "stdin"))
	} else {
		opts = append(opts, pipeline.WithFilePath(specPath))
	}

	engine, err := pipeline.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", FormatSpecPath(specPath), err)
	}
	return engine, nil
}

// stringsFlag collects a repeatable string flag.
type stringsFlag []string

func (s *stringsFlag) String() string { return strings.Join(*s, ", ") }

func (s *stringsFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// splitPair splits "name: value" or "name=value".
func splitPair(s string) (string, string, error) {
	i := strings.IndexAny(s, ":=")
	if i <= 0 {
		return "", "", fmt.Errorf("expected name:value or name=value, got %q", s)
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), nil
}

// readData resolves a -d argument: "@path" reads a file, "@-" reads stdin,
// anything else is used verbatim.
func readData(arg string) ([]byte, error) {
	name, ok := strings.CutPrefix(arg, "@")
	if !ok {
		return []byte(arg), nil
	}
	if name == StdinFilePath {
		return io.ReadAll(Stdin)
	}
	data, err := os.ReadFile(name) //nolint:gosec // user-supplied CLI path
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	return data, nil
}

// issueView is the structured form of a validation error.
type issueView struct {
	In       string `json:"in,omitempty" yaml:"in,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Path     string `json:"path" yaml:"path"`
	Kind     string `json:"kind" yaml:"kind"`
	Message  string `json:"message" yaml:"message"`
	Severity string `json:"severity" yaml:"severity"`
}

func issueViews(errs []pipeline.ValidationError) []issueView {
	if len(errs) == 0 {
		return nil
	}
	out := make([]issueView, 0, len(errs))
	for _, e := range errs {
		out = append(out, issueView{
			In:       e.In,
			Name:     e.Name,
			Path:     e.Pointer(),
			Kind:     string(e.Kind),
			Message:  e.Message,
			Severity: e.Severity.String(),
		})
	}
	return out
}

func writeIssues(w io.Writer, errs []pipeline.ValidationError) {
	Writef(w, "Errors (%d):\n", len(errs))
	for _, e := range errs {
		Writef(w, "  %s\n", e.String())
	}
}
