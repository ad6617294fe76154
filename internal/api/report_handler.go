package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/genewise-api/internal/api/shared"
	"github.com/phrazzld/genewise-api/internal/platform/logger"
	"github.com/phrazzld/genewise-api/internal/report"
)

// Simplifier is the report operation behind the simplify endpoint;
// *report.Simplifier satisfies it.
type Simplifier interface {
	Simplify(ctx context.Context, doc report.Document) (*report.Summary, error)
}

// ReportHandler serves report simplification.
type ReportHandler struct {
	simplifier Simplifier
	analyzer   report.Analyzer
	logger     *slog.Logger
}

// NewReportHandler creates a ReportHandler. analyzer may be nil, in which case
// requests that only carry a document_url are rejected.
func NewReportHandler(simplifier Simplifier, analyzer report.Analyzer, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		simplifier: simplifier,
		analyzer:   analyzer,
		logger:     logger.With("component", "report_handler"),
	}
}

// Simplify handles POST /api/reports/simplify. Individual task failures do not
// fail the request: the response carries fallbacks and a partial status.
func (h *ReportHandler) Simplify(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req SimplifyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	in := req.Input()
	if h.analyzer == nil && in.DocumentURL != "" && len(in.Sections) == 0 && in.Text == "" {
		HandleAPIError(w, r, ErrAnalysisUnavailable)
		return
	}

	doc, err := report.BuildDocument(r.Context(), h.analyzer, in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	summary, err := h.simplifier.Simplify(r.Context(), doc)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Info("report simplification served",
		"run_id", summary.RunID,
		"status", summary.Status,
		"fallbacks", len(summary.Fallbacks))
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}
