package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/phrazzld/genewise-api/internal/extract"
	"github.com/phrazzld/genewise-api/internal/generation"
	"github.com/phrazzld/genewise-api/internal/orchestrator"
)

// Task names, which are also the field names of the composite result.
const (
	TaskSummary       = "summary_html"
	TaskMetadata      = "metadata"
	TaskTimeline      = "timeline"
	TaskOtherFindings = "other_findings"
	TaskSecondary     = "secondary_findings"
)

// FallbackSummaryHTML replaces a summary that could not be generated.
const FallbackSummaryHTML = "<p>No ha sido posible generar el resumen simplificado de este informe. Consulte los resultados con su médico o asesor genético.</p>"

// MetadataReviewNote marks fallback metadata.
const MetadataReviewNote = "Requiere revisión manual: no se pudieron extraer los metadatos del informe."

// Metadata describes the report's primary finding.
type Metadata struct {
	PrimaryFindingExists bool     `json:"primary_finding_exists"`
	PrimaryVariant       *Variant `json:"primary_variant,omitempty"`
	InheritancePattern   string   `json:"inheritance_pattern,omitempty"`
	ReviewNote           string   `json:"review_note,omitempty"`
}

// TimelineEvent is one dated event mentioned in the report.
type TimelineEvent struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}

// Summary is the patient-facing result of Simplify.
type Summary struct {
	RunID         string              `json:"run_id"`
	DocumentID    string              `json:"document_id,omitempty"`
	SummaryHTML   string              `json:"summary_html"`
	Metadata      Metadata            `json:"metadata"`
	Timeline      []TimelineEvent     `json:"timeline"`
	OtherFindings []Variant           `json:"other_findings"`
	Secondary     []SecondaryFinding  `json:"secondary_findings"`
	Inheritance   *Inheritance        `json:"inheritance,omitempty"`
	Status        orchestrator.Status `json:"status"`
	Fallbacks     []string            `json:"fallbacks,omitempty"`

	// Set by the follow-up fan-out.
	GeneInfo          string `json:"gene_info_html,omitempty"`
	ClinicalRelevance string `json:"clinical_relevance_html,omitempty"`
	Limitations       string `json:"limitations_html,omitempty"`
}

// Runner executes a task set; *orchestrator.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, tasks []orchestrator.Task) (*orchestrator.CompositeResult, error)
}

// Simplifier produces Summaries from Documents.
type Simplifier struct {
	generator generation.Generator
	runner    Runner
	logger    *slog.Logger
}

// NewSimplifier creates a Simplifier.
func NewSimplifier(generator generation.Generator, runner Runner, logger *slog.Logger) *Simplifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simplifier{
		generator: generator,
		runner:    runner,
		logger:    logger.With("component", "report"),
	}
}

// Simplify summarizes doc in two fan-outs: the report tasks, then the
// follow-up tasks that depend on the settled metadata. It fails only when doc
// is empty or the first task set cannot be run; individual task failures are
// absorbed as fallbacks.
func (s *Simplifier) Simplify(ctx context.Context, doc Document) (*Summary, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	result, err := s.runner.Run(ctx, s.tasks(doc))
	if err != nil {
		return nil, fmt.Errorf("simplify report: %w", err)
	}

	summary := s.assemble(doc, result)
	s.followUp(ctx, doc, summary)
	s.logger.InfoContext(ctx, "report simplified",
		"run_id", summary.RunID,
		"document_id", doc.ID,
		"status", summary.Status,
		"fallbacks", summary.Fallbacks,
		"other_findings", len(summary.OtherFindings),
		"secondary_findings", len(summary.Secondary))
	return summary, nil
}

func (s *Simplifier) tasks(doc Document) []orchestrator.Task {
	summary := summaryPrompt(doc)
	metadata := metadataPrompt(doc)
	timeline := timelinePrompt(doc)

	findingsTask := orchestrator.Task{
		Name:     TaskOtherFindings,
		Validate: extract.Array[Variant](),
		Fallback: []Variant{},
	}
	if annex := annexText(doc); annex != "" {
		prompt := otherFindingsPrompt(annex)
		findingsTask.Prompt = prompt.Instructions
		findingsTask.Invoke = s.generate(prompt)
	} else {
		findingsTask.Invoke = noFindings
	}

	secondaryTask := orchestrator.Task{
		Name:     TaskSecondary,
		Validate: extract.Array[SecondaryFinding](),
		Fallback: []SecondaryFinding{},
		Invoke:   noFindings,
	}
	if text := secondaryText(doc); text != "" {
		prompt := secondaryFindingsPrompt(text)
		secondaryTask.Prompt = prompt.Instructions
		secondaryTask.Invoke = s.generate(prompt)
	}

	return []orchestrator.Task{
		{
			Name:     TaskSummary,
			Prompt:   summary.Instructions,
			Invoke:   s.generate(summary),
			Validate: SummaryHTML,
			Fallback: FallbackSummaryHTML,
		},
		{
			Name:     TaskMetadata,
			Prompt:   metadata.Instructions,
			Invoke:   s.generate(metadata),
			Validate: validateMetadata,
			Fallback: Metadata{ReviewNote: MetadataReviewNote},
		},
		{
			Name:     TaskTimeline,
			Prompt:   timeline.Instructions,
			Invoke:   s.generate(timeline),
			Validate: validateTimeline,
			Fallback: []TimelineEvent{},
		},
		findingsTask,
		secondaryTask,
	}
}

var noFindings = constant("[]")

func (s *Simplifier) generate(p generation.Prompt) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, p)
	}
}

// annexText is the annex section, or the free text of an unsectioned document.
func annexText(doc Document) string {
	if annex := doc.Section(SectionAnnex); annex != "" {
		return annex
	}
	if len(doc.Sections) == 0 {
		return strings.TrimSpace(doc.Text)
	}
	return ""
}

// secondaryText is the secondary findings section, or "" when it is missing
// or states that nothing was found.
func secondaryText(doc Document) string {
	text := doc.Section(SectionSecondary)
	if containsAny(fold(text), "sin hallazgos", "no se identifican") {
		return ""
	}
	return text
}

var decodeMetadata = extract.Object[Metadata]("primary_finding_exists")

func validateMetadata(raw string) (any, error) {
	v, err := decodeMetadata(raw)
	if err != nil {
		return nil, err
	}
	md := v.(Metadata)
	md.InheritancePattern = strings.TrimSpace(md.InheritancePattern)
	if !md.PrimaryFindingExists {
		md.PrimaryVariant = nil
		md.InheritancePattern = ""
	}
	return md, nil
}

var decodeTimeline = extract.Array[TimelineEvent]()

func validateTimeline(raw string) (any, error) {
	v, err := decodeTimeline(raw)
	if err != nil {
		return nil, err
	}
	events := v.([]TimelineEvent)
	out := make([]TimelineEvent, 0, len(events))
	for _, e := range events {
		e.Date = strings.TrimSpace(e.Date)
		e.Event = strings.TrimSpace(e.Event)
		if e.Event == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// assemble applies the deterministic post-processing to a settled run.
func (s *Simplifier) assemble(doc Document, result *orchestrator.CompositeResult) *Summary {
	summary := &Summary{
		RunID:         result.RunID,
		DocumentID:    doc.ID,
		SummaryHTML:   FallbackSummaryHTML,
		Metadata:      Metadata{ReviewNote: MetadataReviewNote},
		Timeline:      []TimelineEvent{},
		OtherFindings: []Variant{},
		Secondary:     []SecondaryFinding{},
		Status:        result.Status,
	}

	if v, ok := result.Fields[TaskSummary].(string); ok {
		summary.SummaryHTML = v
	}
	if v, ok := result.Fields[TaskMetadata].(Metadata); ok {
		summary.Metadata = v
	}
	if v, ok := result.Fields[TaskTimeline].([]TimelineEvent); ok {
		summary.Timeline = v
	}
	if v, ok := result.Fields[TaskSecondary].([]SecondaryFinding); ok {
		summary.Secondary = v
	}

	md := summary.Metadata
	if md.PrimaryFindingExists && md.PrimaryVariant == nil {
		s.logger.Warn("primary finding reported without variant details", "run_id", result.RunID)
	}
	if v, ok := result.Fields[TaskOtherFindings].([]Variant); ok {
		summary.OtherFindings = OtherFindings(v, md.PrimaryVariant)
	}
	if md.PrimaryFindingExists && md.InheritancePattern != "" {
		genotype := ""
		if md.PrimaryVariant != nil {
			genotype = md.PrimaryVariant.Genotipo
		}
		inheritance := ExplainInheritance(md.InheritancePattern, genotype)
		if inheritance.ImageID == "" {
			s.logger.Info("inheritance pattern not mapped", "pattern", md.InheritancePattern, "run_id", result.RunID)
		}
		summary.Inheritance = &inheritance
	}

	for name, outcome := range result.Outcomes {
		if outcome.UsedFallback {
			summary.Fallbacks = append(summary.Fallbacks, name)
		}
	}
	sort.Strings(summary.Fallbacks)
	return summary
}
