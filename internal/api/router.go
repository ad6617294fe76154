package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/genewise-api/internal/api/middleware"
	"github.com/phrazzld/genewise-api/internal/api/shared"
	"github.com/phrazzld/genewise-api/internal/report"
)

// RouterDeps are the collaborators the HTTP surface needs.
type RouterDeps struct {
	Logger     *slog.Logger
	Simplifier Simplifier

	// Analyzer runs OCR; nil disables document analysis.
	Analyzer report.Analyzer

	// JWTSecret enables bearer authentication on /api when non-empty.
	JWTSecret string

	// RequestTimeout bounds each /api request; zero means no limit.
	RequestTimeout time.Duration
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(log))

	reportHandler := NewReportHandler(deps.Simplifier, deps.Analyzer, log)
	documentHandler := NewDocumentHandler(deps.Analyzer, log)

	r.Route("/api", func(r chi.Router) {
		if deps.RequestTimeout > 0 {
			r.Use(middleware.Timeout(deps.RequestTimeout))
		}
		if deps.JWTSecret != "" {
			r.Use(apiMiddleware.NewAuthMiddleware(deps.JWTSecret).Authenticate)
		}

		r.Post("/reports/simplify", reportHandler.Simplify)
		r.Post("/documents/analyze", documentHandler.Analyze)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
			Status:           "ok",
			DocumentAnalysis: deps.Analyzer != nil,
		})
	})

	return r
}
