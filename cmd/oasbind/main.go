package main

import (
	"fmt"
	"os"

	"github.com/agnivade/levenshtein"

	"github.com/erraggy/oasbind"
	"github.com/erraggy/oasbind/cmd/oasbind/commands"
)

// commandNames lists every command, for typo suggestions.
var commandNames = []string{"check", "request", "render", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "version", "-v", "--version":
		fmt.Printf("oasbind %s\n", oasbind.Version())
		if len(os.Args) > 2 && os.Args[2] == "-l" {
			fmt.Println(oasbind.BuildInfo())
		}
		return
	case "help", "-h", "--help":
		printUsage()
		return
	case "check":
		err = commands.HandleCheck(os.Args[2:])
	case "request":
		err = commands.HandleRequest(os.Args[2:])
	case "render":
		err = commands.HandleRender(os.Args[2:])
	case "mcp":
		err = commands.HandleMCP(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", s)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// suggestCommand returns the closest command within an edit distance of 2,
// or "" when nothing is that close.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := levenshtein.ComputeDistance(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func printUsage() {
	fmt.Println(`oasbind - OpenAPI request and response binding

Usage:
  oasbind <command> [options]

Commands:
  check       Load and compile a document, listing its operations
  request     Convert a request against the operation it matches
  render      Validate and encode a response for an operation
  mcp         Serve the binding tools over the Model Context Protocol
  version     Show version information (-l for build details)
  help        Show this help message

Examples:
  oasbind check openapi.yaml
  oasbind request openapi.yaml '/pets?limit=5'
  oasbind render -op getPet -d '{"id":1,"name":"rex"}' openapi.yaml

Run 'oasbind <command> --help' for more information on a command.`)
}
