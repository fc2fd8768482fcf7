// Mailto is a CLI tool and HTTP server that decodes saved email
// containers (Outlook .msg compound files, MIME text, mbox archives)
// into normalized message records.
package main

import (
	"fmt"
	"os"
	"strings"

	_ "github.com/ekayaprod/mailto/formats/eml"
	_ "github.com/ekayaprod/mailto/formats/mbox"
	_ "github.com/ekayaprod/mailto/formats/msg"
)

// version is the application version, embedded in API responses.
const version = "1.0.0"

// usage prints command-line help to stderr.
func usage() {
	fmt.Fprintf(os.Stderr, `mailto v%s
Email container decoder

Usage:
  mailto view    <file>              Show a message summary
  mailto json    <file>              Print the decoded record as JSON
  mailto extract <file> [output_dir] Write body, HTML, and recipient files
  mailto mbox    <file> [output_dir] Batch-extract an mbox archive
  mailto serve   [addr] [options]    Start the HTTP API (default :8080)
  mailto healthcheck [port]          Probe a running server
  mailto help                        Show this help message

Serve options:
  --config <path>  Load settings from a YAML file

Examples:
  mailto view message.msg
  mailto json draft.eml
  mailto extract message.msg ./output
  mailto mbox inbox.mbox ./output
  mailto serve :9090
  mailto serve --config mailto.yaml
`, version)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := strings.ToLower(os.Args[1])
	args := os.Args[2:]

	switch cmd {
	case "help", "-h", "--help":
		usage()
	case "version", "-v", "--version":
		fmt.Println(version)
	case "healthcheck":
		cmdHealthcheck(args)
	case "view":
		requireFile(args)
		cmdView(args[0])
	case "json":
		requireFile(args)
		cmdJSON(args[0])
	case "extract":
		requireFile(args)
		cmdExtract(args[0], outputDir(args))
	case "mbox":
		requireFile(args)
		cmdMbox(args[0], outputDir(args))
	case "serve", "server":
		cmdServe(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

// requireFile exits with an error if no file argument was provided.
func requireFile(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: file path required")
		usage()
		os.Exit(1)
	}
}

// outputDir returns the output directory from args, defaulting to ".".
func outputDir(args []string) string {
	if len(args) >= 2 {
		return args[1]
	}
	return "."
}
