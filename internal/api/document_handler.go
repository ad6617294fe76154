package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/genewise-api/internal/analysis"
	"github.com/phrazzld/genewise-api/internal/api/shared"
	"github.com/phrazzld/genewise-api/internal/report"
)

// DocumentHandler exposes raw OCR of a document.
type DocumentHandler struct {
	analyzer report.Analyzer
	logger   *slog.Logger
}

// NewDocumentHandler creates a DocumentHandler. A nil analyzer makes every
// request fail with 503.
func NewDocumentHandler(analyzer report.Analyzer, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{analyzer: analyzer, logger: logger.With("component", "document_handler")}
}

// Analyze handles POST /api/documents/analyze.
func (h *DocumentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		HandleAPIError(w, r, ErrAnalysisUnavailable)
		return
	}

	var req AnalyzeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, job, err := h.analyzer.Analyze(r.Context(), analysis.Request{DocumentURL: req.DocumentURL})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "document analyzed", "pages", result.Pages, "content_length", len(result.Content))

	resp := AnalyzeResponse{Content: result.Content, Pages: result.Pages}
	if job != nil {
		resp.PollCount = job.PollCount
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
