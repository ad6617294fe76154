package api

import "github.com/phrazzld/genewise-api/internal/report"

// SimplifyRequest is the body of POST /api/reports/simplify. At least one of
// document_url, sections and text must be present.
type SimplifyRequest struct {
	ID          string            `json:"id,omitempty"           validate:"omitempty,max=128"`
	DocumentURL string            `json:"document_url,omitempty" validate:"omitempty,url"`
	Sections    map[string]string `json:"sections,omitempty"`
	Text        string            `json:"text,omitempty"`
}

// Input converts the request into a report.Input.
func (r SimplifyRequest) Input() report.Input {
	return report.Input{
		ID:          r.ID,
		DocumentURL: r.DocumentURL,
		Sections:    r.Sections,
		Text:        r.Text,
	}
}

// AnalyzeRequest is the body of POST /api/documents/analyze.
type AnalyzeRequest struct {
	DocumentURL string `json:"document_url" validate:"required,url"`
}

// AnalyzeResponse is the OCR output of a document.
type AnalyzeResponse struct {
	Content   string `json:"content"`
	Pages     int    `json:"pages"`
	PollCount int    `json:"poll_count"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	DocumentAnalysis bool   `json:"document_analysis"`
}
