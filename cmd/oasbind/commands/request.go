package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/erraggy/oasbind/pipeline"
)

// RequestFlags contains flags for the request command
type RequestFlags struct {
	engine      engineFlags
	Method      string
	Headers     stringsFlag
	Cookies     stringsFlag
	Data        string
	ContentType string
	Format      string
}

// SetupRequestFlags creates and configures a FlagSet for the request command.
func SetupRequestFlags() (*flag.FlagSet, *RequestFlags) {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	flags := &RequestFlags{}

	flags.engine.register(fs)
	fs.StringVar(&flags.Method, "X", http.MethodGet, "HTTP method")
	fs.Var(&flags.Headers, "H", "request header as 'Name: value' (repeatable)")
	fs.Var(&flags.Cookies, "cookie", "cookie as 'name=value' (repeatable)")
	fs.StringVar(&flags.Data, "d", "", "request body; @file reads a file, @- reads stdin")
	fs.StringVar(&flags.ContentType, "content-type", "", "body media type (default: the Content-Type header)")
	fs.StringVar(&flags.Format, "format", FormatYAML, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oasbind request [flags] <file> <path[?query]>\n\n")
		Writef(fs.Output(), "Convert a request against the operation it matches and print the typed result.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  oasbind request openapi.yaml '/pets?limit=5'\n")
		Writef(fs.Output(), "  oasbind request -X POST -H 'Content-Type: application/json' -d '{\"name\":\"rex\"}' openapi.yaml /pets\n")
		Writef(fs.Output(), "  oasbind request -X POST -content-type application/json -d @pet.json openapi.yaml /pets\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    The request is valid\n")
		Writef(fs.Output(), "  1    The request is invalid, or no operation matches it\n")
	}

	return fs, flags
}

type requestView struct {
	Path        map[string]any `json:"path,omitempty" yaml:"path,omitempty"`
	Query       map[string]any `json:"query,omitempty" yaml:"query,omitempty"`
	Header      map[string]any `json:"header,omitempty" yaml:"header,omitempty"`
	Cookie      map[string]any `json:"cookie,omitempty" yaml:"cookie,omitempty"`
	Body        any            `json:"body,omitempty" yaml:"body,omitempty"`
	ContentType string         `json:"content_type,omitempty" yaml:"content_type,omitempty"`
}

type requestOutput struct {
	Operation string       `json:"operation" yaml:"operation"`
	Valid     bool         `json:"valid" yaml:"valid"`
	Request   *requestView `json:"request,omitempty" yaml:"request,omitempty"`
	Errors    []issueView  `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// HandleRequest executes the request command
func HandleRequest(args []string) error {
	fs, flags := SetupRequestFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("request command requires a file path and a request path")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	raw, target, err := flags.rawRequest(fs.Arg(1))
	if err != nil {
		return err
	}

	engine, err := flags.engine.engine(fs.Arg(0))
	if err != nil {
		return err
	}

	method := strings.ToUpper(flags.Method)
	op, params, ok := engine.Find(method, target.EscapedPath())
	if !ok {
		return fmt.Errorf("no operation matches %s %s", method, target.Path)
	}
	raw.PathParams = params

	res, err := engine.ConvertRequest(context.Background(), raw, op)
	if err != nil {
		return err
	}

	out := requestOutput{Operation: op.ID, Valid: res.Valid, Errors: issueViews(res.Errors)}
	if res.Valid {
		r := res.Request
		out.Request = &requestView{
			Path:        r.Path,
			Query:       r.Query,
			Header:      r.Header,
			Cookie:      r.Cookie,
			Body:        r.Body,
			ContentType: r.ContentType,
		}
	}

	if flags.Format == FormatText {
		Writef(Stdout, "Operation: %s (%s %s)\n", op.ID, op.Method, op.Path)
		if !res.Valid {
			writeIssues(Stdout, res.Errors)
		} else if err := OutputStructured(Stdout, out.Request, FormatYAML); err != nil {
			return err
		}
	} else if err := OutputStructured(Stdout, out, flags.Format); err != nil {
		return err
	}

	if !res.Valid {
		return fmt.Errorf("%w: %d error(s)", ErrInvalid, len(res.Errors))
	}
	return nil
}

// rawRequest assembles the wire request from the flags and target.
func (f *RequestFlags) rawRequest(target string) (*pipeline.RawRequest, *url.URL, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid request path %q: %w", target, err)
	}
	if !strings.HasPrefix(u.Path, "/") {
		return nil, nil, fmt.Errorf("request path must start with '/': %q", target)
	}

	header := make(http.Header)
	for _, h := range f.Headers {
		name, value, err := splitPair(h)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid header: %w", err)
		}
		header.Add(name, value)
	}

	cookies := make(map[string]string)
	for _, c := range f.Cookies {
		name, value, err := splitPair(c)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cookie: %w", err)
		}
		cookies[name] = value
	}

	var body []byte
	if f.Data != "" {
		if body, err = readData(f.Data); err != nil {
			return nil, nil, err
		}
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = header.Get("Content-Type")
	}

	return &pipeline.RawRequest{
		Query:       u.Query(),
		Header:      header,
		Cookies:     cookies,
		Body:        body,
		ContentType: contentType,
	}, u, nil
}
