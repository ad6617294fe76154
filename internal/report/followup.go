package report

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/phrazzld/genewise-api/internal/extract"
	"github.com/phrazzld/genewise-api/internal/orchestrator"
	"golang.org/x/net/html"
)

// Follow-up task names. These run in a second fan-out because each one
// depends on the metadata settled by the first.
const (
	TaskGeneInfo          = "gene_info"
	TaskClinicalRelevance = "clinical_relevance"
	TaskLimitations       = "limitations"
	TaskInheritanceText   = "inheritance_explanation"
)

// FallbackClinicalRelevance replaces a clinical interpretation that could not
// be simplified.
const FallbackClinicalRelevance = "<p>Consulte con su médico o asesor genético la interpretación clínica detallada de este resultado.</p>"

// DefaultLimitations is shown with a negative result when the report has no
// limitations section or it could not be simplified.
const DefaultLimitations = "<p>Es importante saber que esta técnica tiene algunas limitaciones: no analiza absolutamente todo el ADN y hay ciertos tipos de cambios genéticos que no puede detectar bien. Por tanto, un resultado sin hallazgos no descarta al 100% que exista una causa genética.</p>"

// FallbackGeneInfo is the gene explanation used when generation fails.
func FallbackGeneInfo(gene string) string {
	return fmt.Sprintf("<p>No ha sido posible obtener información adicional sobre el gen %s. Su médico o asesor genético podrá explicarle su función y la condición asociada.</p>", html.EscapeString(gene))
}

func constant(reply string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return reply, nil }
}

// plainText accepts a non-blank reply, unfenced and trimmed.
func plainText(raw string) (any, error) {
	text := extract.Unfence(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", extract.ErrShape)
	}
	return text, nil
}

// followUpTasks builds the second fan-out for summary. A negative result gets
// the limitations text; a primary finding gets the gene explanation, the
// simplified clinical interpretation and, for an unmapped pattern, a model
// explanation of its inheritance.
func (s *Simplifier) followUpTasks(doc Document, summary *Summary) []orchestrator.Task {
	md := summary.Metadata
	if !md.PrimaryFindingExists {
		limitations := orchestrator.Task{
			Name:     TaskLimitations,
			Invoke:   constant(DefaultLimitations),
			Validate: SummaryHTML,
			Fallback: DefaultLimitations,
		}
		if text := doc.Section(SectionLimitations); text != "" {
			prompt := limitationsPrompt(text)
			limitations.Prompt = prompt.Instructions
			limitations.Invoke = s.generate(prompt)
		}
		return []orchestrator.Task{limitations}
	}

	var tasks []orchestrator.Task
	if v := md.PrimaryVariant; v != nil && strings.TrimSpace(v.Gen) != "" {
		prompt := geneInfoPrompt(*v)
		tasks = append(tasks, orchestrator.Task{
			Name:     TaskGeneInfo,
			Prompt:   prompt.Instructions,
			Invoke:   s.generate(prompt),
			Validate: SummaryHTML,
			Fallback: FallbackGeneInfo(strings.TrimSpace(v.Gen)),
		})
	}
	if text := doc.Context(SectionInterpretation, SectionConclusions); text != "" {
		prompt := clinicalRelevancePrompt(text)
		tasks = append(tasks, orchestrator.Task{
			Name:     TaskClinicalRelevance,
			Prompt:   prompt.Instructions,
			Invoke:   s.generate(prompt),
			Validate: SummaryHTML,
			Fallback: FallbackClinicalRelevance,
		})
	}
	if in := summary.Inheritance; in != nil && in.ImageID == "" {
		prompt := inheritancePrompt(in.Pattern)
		tasks = append(tasks, orchestrator.Task{
			Name:     TaskInheritanceText,
			Prompt:   prompt.Instructions,
			Invoke:   s.generate(prompt),
			Validate: plainText,
			Fallback: in.Text,
		})
	}
	return tasks
}

// followUp runs the second fan-out and merges it into summary. It is skipped
// when the metadata itself fell back, since the branch it would pick is
// unknown. A runner error leaves the first-stage summary untouched.
func (s *Simplifier) followUp(ctx context.Context, doc Document, summary *Summary) {
	if slices.Contains(summary.Fallbacks, TaskMetadata) {
		return
	}
	tasks := s.followUpTasks(doc, summary)
	if len(tasks) == 0 {
		return
	}

	result, err := s.runner.Run(ctx, tasks)
	if err != nil {
		s.logger.WarnContext(ctx, "follow-up tasks not run",
			"run_id", summary.RunID,
			"error", err)
		return
	}

	if v, ok := result.Fields[TaskGeneInfo].(string); ok {
		summary.GeneInfo = v
	}
	if v, ok := result.Fields[TaskClinicalRelevance].(string); ok {
		summary.ClinicalRelevance = v
	}
	if v, ok := result.Fields[TaskLimitations].(string); ok {
		summary.Limitations = v
	}
	if v, ok := result.Fields[TaskInheritanceText].(string); ok && summary.Inheritance != nil {
		summary.Inheritance.Text = v
	}

	for name, outcome := range result.Outcomes {
		if outcome.UsedFallback {
			summary.Fallbacks = append(summary.Fallbacks, name)
		}
	}
	sort.Strings(summary.Fallbacks)
	if result.Status != orchestrator.StatusSuccess {
		summary.Status = result.Status
	}
}
