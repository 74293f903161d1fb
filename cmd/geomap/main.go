package main

import (
	"fmt"
	"io"
	"os"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitInvalidArgs     = 2
	ExitSourceNotAccess = 3
	ExitStorageError    = 5
	ExitPartialTransfer = 6
	ExitConnection      = 8
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "fetch":
		return runFetch(cmdArgs, stdout, stderr)
	case "url":
		return runURL(cmdArgs, stdout, stderr)
	case "pixel":
		return runPixel(cmdArgs, stdout, stderr)
	case "coords":
		return runCoords(cmdArgs, stdout, stderr)
	case "serve":
		return runServe(cmdArgs, stderr)
	case "help", "-h", "--help":
		printUsage(stderr)
		return ExitSuccess
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return ExitInvalidArgs
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: geomap <command> [options]

Commands:
  fetch     Download the static map centered on a coordinate into a bucket
  url       Print the provider request for a map
  pixel     Convert a coordinate to a pixel on a map
  coords    Convert a pixel on a map to a coordinate
  serve     Serve fetch, stored maps and conversions over HTTP

Run 'geomap <command> -h' for command-specific help.`)
}
