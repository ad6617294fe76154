// Package report turns a technical genetic report into a patient-facing
// summary.
//
// Simplify fans five independent model tasks out through the orchestrator
// (summary text, metadata, timeline, the other findings in the annex and the
// secondary findings) and then applies deterministic post-processing:
// classification normalization, exclusion of the primary variant from the
// other findings, and the inheritance explanation lookup. A second fan-out
// adds the text that depends on the settled metadata: limitations for a
// negative result, or the gene and clinical explanations for a primary
// finding. Any task that fails contributes a fixed fallback, so a summary is
// always returned once the document is usable.
package report
