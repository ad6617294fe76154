package main

import (
	"context"
	"errors"

	"github.com/phrazzld/genewise-api/internal/analysis"
	"github.com/phrazzld/genewise-api/internal/api"
	"github.com/spf13/cobra"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var contentOnly bool

	cmd := &cobra.Command{
		Use:   "analyze <document-url>",
		Short: "Run a document through OCR and print the extracted text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.DocumentAnalysis.Enabled() {
				return errors.New("document analysis is not configured: set document_analysis.endpoint and document_analysis.api_key")
			}

			app, err := newApplication(cmd.Context(), cfg, cmd.ErrOrStderr(), ctx.appOpts...)
			if err != nil {
				return err
			}
			defer func() { _ = app.shutdown(context.Background()) }()

			result, job, err := app.analyzer.Analyze(cmd.Context(), analysis.Request{DocumentURL: args[0]})
			if err != nil {
				return err
			}

			if contentOnly {
				_, err := cmd.OutOrStdout().Write([]byte(result.Content + "\n"))
				return err
			}
			return writeJSON(cmd, api.AnalyzeResponse{
				Content:   result.Content,
				Pages:     result.Pages,
				PollCount: job.PollCount,
			})
		},
	}

	cmd.Flags().BoolVar(&contentOnly, "content-only", false, "Print only the extracted text")
	return cmd
}
