// Package main implements the genewise command: the HTTP server that turns
// genetic reports into patient-facing summaries, plus one-shot commands for
// simplifying a report, running OCR on a document and migrating the
// diagnostics database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
