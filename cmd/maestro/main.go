// Package main is the entry point for the maestro CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/runoshun/maestro/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	os.Exit(exitCode(run(), os.Stderr))
}

func run() error {
	return cli.NewRootCommand(version).Execute()
}

// exitCode prints err and maps it to the process exit status.
// "queue wait" running out of work exits 2 so worker loops can stop.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrNoWork):
		return 2
	default:
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
}
