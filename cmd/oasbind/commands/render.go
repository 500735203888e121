package commands

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/erraggy/oasbind/pipeline"
)

// RenderFlags contains flags for the render command
type RenderFlags struct {
	engine      engineFlags
	Operation   string
	Status      int
	Data        string
	ContentType string
	Headers     stringsFlag
	Format      string
}

// SetupRenderFlags creates and configures a FlagSet for the render command.
func SetupRenderFlags() (*flag.FlagSet, *RenderFlags) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	flags := &RenderFlags{}

	flags.engine.register(fs)
	fs.StringVar(&flags.Operation, "op", "", "operationId (or 'METHOD /path') to render for (required)")
	fs.IntVar(&flags.Status, "status", http.StatusOK, "response status code")
	fs.StringVar(&flags.Data, "d", "", "response value as JSON; @file reads a file, @- reads stdin")
	fs.StringVar(&flags.ContentType, "content-type", "", "declared media type to encode as (default: the first)")
	fs.Var(&flags.Headers, "H", "response header as 'Name: value'; JSON values are decoded (repeatable)")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oasbind render [flags] <file>\n\n")
		Writef(fs.Output(), "Validate a response value against an operation and print the encoded response.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  oasbind render -op getPet -d '{\"id\":1,\"name\":\"rex\"}' openapi.yaml\n")
		Writef(fs.Output(), "  oasbind render -op listPets -H 'X-Total: 1' -d @pets.json openapi.yaml\n")
		Writef(fs.Output(), "  oasbind render -op 'DELETE /pets/{petId}' -status 204 openapi.yaml\n")
	}

	return fs, flags
}

type renderOutput struct {
	Operation   string              `json:"operation" yaml:"operation"`
	Valid       bool                `json:"valid" yaml:"valid"`
	Status      int                 `json:"status,omitempty" yaml:"status,omitempty"`
	ContentType string              `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Header      map[string][]string `json:"header,omitempty" yaml:"header,omitempty"`
	Body        string              `json:"body,omitempty" yaml:"body,omitempty"`
	Errors      []issueView         `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// HandleRender executes the render command
func HandleRender(args []string) error {
	fs, flags := SetupRenderFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("render command requires exactly one file path")
	}
	if flags.Operation == "" {
		fs.Usage()
		return fmt.Errorf("operation is required (use -op)")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	out, err := flags.output()
	if err != nil {
		return err
	}

	engine, err := flags.engine.engine(fs.Arg(0))
	if err != nil {
		return err
	}
	op, ok := findOperation(engine, flags.Operation)
	if !ok {
		return fmt.Errorf("unknown operation %q", flags.Operation)
	}

	res, err := engine.RenderResponse(context.Background(), out, op)
	if err != nil {
		return err
	}

	view := renderOutput{Operation: op.ID, Valid: res.Valid, Errors: issueViews(res.Errors)}
	if res.Valid {
		view.Status = res.Response.Status
		view.ContentType = res.Response.ContentType
		view.Header = res.Response.Header
		view.Body = string(res.Response.Body)
	}

	switch {
	case flags.Format != FormatText:
		if err := OutputStructured(Stdout, view, flags.Format); err != nil {
			return err
		}
	case !res.Valid:
		writeIssues(Stdout, res.Errors)
	default:
		Writef(Stdout, "%d %s\n", view.Status, http.StatusText(view.Status))
		if err := res.Response.Header.Write(Stdout); err != nil {
			return err
		}
		Writef(Stdout, "\n%s\n", view.Body)
	}

	if !res.Valid {
		return fmt.Errorf("%w: %d error(s)", ErrInvalid, len(res.Errors))
	}
	return nil
}

// findOperation looks ref up by operationId, then as "METHOD /path".
func findOperation(engine *pipeline.Engine, ref string) (*pipeline.Operation, bool) {
	if op, ok := engine.Operation(ref); ok {
		return op, true
	}
	method, path, ok := strings.Cut(strings.TrimSpace(ref), " ")
	if !ok {
		return nil, false
	}
	method = strings.ToUpper(method)
	path = strings.TrimSpace(path)
	for _, op := range engine.Operations() {
		if op.Method == method && op.Path == path {
			return op, true
		}
	}
	return nil, false
}

// output assembles the handler output from the flags.
func (f *RenderFlags) output() (*pipeline.Output, error) {
	out := &pipeline.Output{Status: f.Status, ContentType: f.ContentType}

	if f.Data != "" {
		data, err := readData(f.Data)
		if err != nil {
			return nil, err
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("response value is not valid JSON")
		}
		out.Value = json.RawMessage(data)
	}

	for _, h := range f.Headers {
		name, value, err := splitPair(h)
		if err != nil {
			return nil, fmt.Errorf("invalid header: %w", err)
		}
		if out.Header == nil {
			out.Header = make(map[string]any)
		}
		out.Header[name] = headerValue(value)
	}
	return out, nil
}

// headerValue decodes a JSON scalar or array, falling back to the raw text.
func headerValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	if _, isObject := v.(map[string]any); isObject {
		return s
	}
	return json.RawMessage(s)
}
