// Command tabherd is the tab sorting CLI — reorders a browser's
// selected tabs by URL or by page date, over a NATS bridge to the
// browser-side endpoint.
package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "--help", "-h", "help":
		printUsage()
		return
	case "--version", "-v", "version":
		fmt.Println("tabherd", version)
		return
	}

	a, err := newApp()
	if err != nil {
		fatal("%v", err)
	}
	defer a.Close()

	switch os.Args[1] {
	// Setup
	case "init":
		os.Exit(a.cmdInit(os.Args[2:]))

	// Operations
	case "sort":
		os.Exit(a.cmdSort(os.Args[2:]))
	case "history", "hist":
		os.Exit(a.cmdHistory(os.Args[2:]))
	case "status":
		os.Exit(a.cmdStatus(os.Args[2:]))

	default:
		fmt.Fprintf(os.Stderr, "tabherd: unknown command %q\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Run 'tabherd --help' for usage.")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`tabherd — sort browser tabs by URL or page date

Stable ordering over the selected tabs. Tabs land as one contiguous
block ending at the rightmost selected position. Page dates come from
a browser-side endpoint over NATS; tabs without a date keep their
relative order after the dated ones.

Usage:
  tabherd <command> [flags]

Setup:
  init [--force]            Write the default config file

Commands:
  sort --by url|date        Sort the current selection
  history [--limit N]       List past sort operations
  status                    Show config, endpoint, and last operation

Aliases:
  hist = history

Environment:
  TABHERD_CONFIG      Config file path (default: .tabherd/config.yaml)
  TABHERD_NATS_URL    NATS server URL (overrides the config file)
  TABHERD_DEBUG       Verbose logging when set

All commands support --json for machine-readable output.

Exit codes:
  0  success
  1  error
  2  sort completed degraded (some tabs unmoved or dates unavailable)
`)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "tabherd: "+format+"\n", args...)
	os.Exit(1)
}
