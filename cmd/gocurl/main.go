// gocurl is a command-line HTTP client.
//
// Usage:
//
//	gocurl [flags] <url>
//	gocurl --help
//
// Flags can also be set through GOCURL_* environment variables or a
// --config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/adamwoolhether/gocurl/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
