package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/genewise-api/internal/analysis"
)

// Analyzer runs a document through OCR; *analysis.Poller satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, *analysis.Job, error)
}

// Input is a simplification request: structured sections or free text, or a
// document URL to run through OCR first.
type Input struct {
	ID          string            `json:"id,omitempty"`
	DocumentURL string            `json:"document_url,omitempty" validate:"omitempty,url"`
	Sections    map[string]string `json:"sections,omitempty"`
	Text        string            `json:"text,omitempty"`
}

// BuildDocument turns in into a Document. When a URL is given and the
// request carries no content of its own, the document text comes from OCR;
// analyzer may be nil otherwise. OCR errors are returned as is so callers can
// match analysis sentinels.
func BuildDocument(ctx context.Context, analyzer Analyzer, in Input) (Document, error) {
	doc := Document{ID: in.ID, Sections: in.Sections, Text: in.Text}
	if doc.Validate() == nil {
		return doc, nil
	}

	url := strings.TrimSpace(in.DocumentURL)
	if url == "" {
		return Document{}, ErrEmptyDocument
	}
	if analyzer == nil {
		return Document{}, fmt.Errorf("%w: document analysis is not configured", analysis.ErrSubmission)
	}

	result, _, err := analyzer.Analyze(ctx, analysis.Request{DocumentURL: url})
	if err != nil {
		return Document{}, err
	}
	doc.Text = result.Content
	if err := doc.Validate(); err != nil {
		return Document{}, fmt.Errorf("ocr returned no text: %w", err)
	}
	return doc, nil
}
