package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyDocument is returned when a document has neither sections nor text.
var ErrEmptyDocument = errors.New("document has no content")

// Section names used by the annex-aware prompts.
const (
	SectionResults        = "Resultados"
	SectionConclusions    = "Conclusiones"
	SectionInterpretation = "Interpretacion"
	SectionAnnex          = "Anexo_I"
	SectionSecondary      = "Hallazgos_secundarios"
	SectionLimitations    = "Limitaciones"
)

// Document is the technical report to simplify. Sections holds named parts
// of a structured report; Text holds free text such as OCR output. Either may
// be empty, but not both.
type Document struct {
	ID       string            `json:"id,omitempty"`
	Sections map[string]string `json:"sections,omitempty"`
	Text     string            `json:"text,omitempty"`
}

// Validate reports ErrEmptyDocument when there is nothing to simplify.
func (d Document) Validate() error {
	if strings.TrimSpace(d.Text) != "" {
		return nil
	}
	for _, body := range d.Sections {
		if strings.TrimSpace(body) != "" {
			return nil
		}
	}
	return ErrEmptyDocument
}

// Section returns the named section's text, matching the name without regard
// to case or accents.
func (d Document) Section(name string) string {
	if body, ok := d.Sections[name]; ok {
		return strings.TrimSpace(body)
	}
	want := fold(name)
	for key, body := range d.Sections {
		if fold(key) == want {
			return strings.TrimSpace(body)
		}
	}
	return ""
}

// Context renders the named sections (all of them when names is empty) as
// labeled blocks for a prompt. Free text is appended when no named section
// has content.
func (d Document) Context(names ...string) string {
	if len(names) == 0 {
		names = make([]string, 0, len(d.Sections))
		for key := range d.Sections {
			names = append(names, key)
		}
		sort.Strings(names)
	}

	var b strings.Builder
	for _, name := range names {
		body := d.Section(name)
		if body == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Texto de la sección '%s':\n%s", name, body)
	}

	if text := strings.TrimSpace(d.Text); text != "" && b.Len() == 0 {
		b.WriteString("Texto del informe:\n")
		b.WriteString(text)
	}
	return b.String()
}
