package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erraggy/oasbind/internal/mcpserver"
)

// SetupMCPFlags creates the FlagSet for the mcp command. It takes no flags;
// the server is configured through OASBIND_* environment variables.
func SetupMCPFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.Usage = func() {
		Writef(fs.Output(), "Usage: oasbind mcp\n\n")
		Writef(fs.Output(), "Serve the compile, convert_request and render_response tools over MCP on stdio.\n\n")
		Writef(fs.Output(), "Environment:\n")
		Writef(fs.Output(), "  OASBIND_MAX_REF_DEPTH    maximum $ref chain length\n")
		Writef(fs.Output(), "  OASBIND_MAX_BODY_SIZE    maximum request body size in bytes\n")
		Writef(fs.Output(), "  OASBIND_ERROR_LIMIT      maximum errors returned per call\n")
		Writef(fs.Output(), "  OASBIND_CACHE_MAX_SIZE   number of compiled documents kept\n")
	}
	return fs
}

// HandleMCP executes the mcp command
func HandleMCP(args []string) error {
	fs := SetupMCPFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("mcp command takes no arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mcpserver.Run(ctx)
}
