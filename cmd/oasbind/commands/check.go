package commands

import (
	"errors"
	"flag"
	"fmt"
	"slices"
	"time"

	"github.com/erraggy/oasbind"
	"github.com/erraggy/oasbind/pipeline"
)

// CheckFlags contains flags for the check command
type CheckFlags struct {
	engine     engineFlags
	Format     string
	NoWarnings bool
}

// SetupCheckFlags creates and configures a FlagSet for the check command.
func SetupCheckFlags() (*flag.FlagSet, *CheckFlags) {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	flags := &CheckFlags{}

	flags.engine.register(fs)
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.BoolVar(&flags.NoWarnings, "no-warnings", false, "suppress schema warnings")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oasbind check [flags] <file|->\n\n")
		Writef(fs.Output(), "Load an OpenAPI 3.0 document, compile every schema and list the operations it binds.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  oasbind check openapi.yaml\n")
		Writef(fs.Output(), "  oasbind check --format json openapi.yaml | jq '.operations[].id'\n")
		Writef(fs.Output(), "  cat openapi.yaml | oasbind check -\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    The document compiled\n")
		Writef(fs.Output(), "  1    The document could not be loaded or compiled\n")
	}

	return fs, flags
}

// checkOperation summarizes one bound operation.
type checkOperation struct {
	ID         string   `json:"id" yaml:"id"`
	Method     string   `json:"method" yaml:"method"`
	Path       string   `json:"path" yaml:"path"`
	Parameters int      `json:"parameters" yaml:"parameters"`
	Body       []string `json:"body,omitempty" yaml:"body,omitempty"`
	Responses  []string `json:"responses" yaml:"responses"`
}

type checkOutput struct {
	Specification string           `json:"specification" yaml:"specification"`
	Operations    []checkOperation `json:"operations" yaml:"operations"`
	Warnings      []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// HandleCheck executes the check command
func HandleCheck(args []string) error {
	fs, flags := SetupCheckFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("check command requires exactly one file path or '-' for stdin")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	specPath := fs.Arg(0)
	start := time.Now()
	engine, err := flags.engine.engine(specPath)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := summarize(engine, specPath, !flags.NoWarnings)
	if flags.Format != FormatText {
		return OutputStructured(Stdout, out, flags.Format)
	}

	Writef(Stdout, "oasbind version: %s\n", oasbind.Version())
	Writef(Stdout, "Specification: %s\n", out.Specification)
	Writef(Stdout, "Operations: %d\n", len(out.Operations))
	Writef(Stdout, "Load Time: %v\n\n", elapsed)
	for _, op := range out.Operations {
		Writef(Stdout, "  %-7s %s (%s)\n", op.Method, op.Path, op.ID)
		if len(op.Body) > 0 {
			Writef(Stdout, "          body: %v\n", op.Body)
		}
		Writef(Stdout, "          responses: %v\n", op.Responses)
	}
	if len(out.Warnings) > 0 {
		Writef(Stdout, "\nWarnings (%d):\n", len(out.Warnings))
		for _, w := range out.Warnings {
			Writef(Stdout, "  %s\n", w)
		}
	}
	Writef(Stdout, "\n✓ Document compiled\n")
	return nil
}

func summarize(engine *pipeline.Engine, specPath string, warnings bool) checkOutput {
	out := checkOutput{Specification: FormatSpecPath(specPath)}
	for _, op := range engine.Operations() {
		co := checkOperation{
			ID:         op.ID,
			Method:     op.Method,
			Path:       op.Path,
			Parameters: len(op.Parameters),
		}
		if op.RequestBody != nil {
			co.Body = op.RequestBody.Bindings.ContentTypes()
		}
		for status := range op.Responses {
			co.Responses = append(co.Responses, status)
		}
		slices.Sort(co.Responses)
		out.Operations = append(out.Operations, co)
	}
	if warnings {
		for _, w := range engine.Warnings() {
			out.Warnings = append(out.Warnings, w.String())
		}
	}
	return out
}
