package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/genewise-api/internal/report"
	"github.com/spf13/cobra"
)

func newSimplifyCommand(ctx *commandContext) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "simplify",
		Short: "Simplify a report read as JSON from stdin or --input",
		Long: `Reads a report request such as
  {"id": "...", "sections": {"Resultados": "..."}, "text": "...", "document_url": "..."}
and writes the simplified summary as JSON to stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			in, err := readInput(cmd, inputPath)
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), cfg, cmd.ErrOrStderr(), ctx.appOpts...)
			if err != nil {
				return err
			}
			defer func() { _ = app.shutdown(context.Background()) }()

			doc, err := report.BuildDocument(cmd.Context(), app.analyzer, in)
			if err != nil {
				return fmt.Errorf("build document: %w", err)
			}
			summary, err := app.simplifier.Simplify(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return writeJSON(cmd, summary)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Read the request from this file instead of stdin")
	return cmd
}

func readInput(cmd *cobra.Command, path string) (report.Input, error) {
	var r io.Reader = cmd.InOrStdin()
	if path = strings.TrimSpace(path); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return report.Input{}, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var in report.Input
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return report.Input{}, fmt.Errorf("decode input: %w", err)
	}
	if err := validator.New().Struct(in); err != nil {
		return report.Input{}, fmt.Errorf("invalid input: %w", err)
	}
	return in, nil
}
