package generation

import (
	"context"
	"strings"
)

// Prompt is a single generation request.
type Prompt struct {
	// System is the standing context for the model (role, tone, audience).
	System string

	// Instructions is the task-specific request, including any source text.
	Instructions string

	// Temperature overrides the generator's default when non-nil.
	Temperature *float32

	// JSON asks the model to reply with a JSON document only.
	JSON bool
}

// Validate checks that the prompt carries instructions.
func (p Prompt) Validate() error {
	if strings.TrimSpace(p.Instructions) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// Generator defines the interface for producing model text from a prompt.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
type Generator interface {
	// Generate returns the model's text reply for p. Errors wrap one of the
	// sentinels in errors.go; ErrTransientFailure marks retryable failures.
	Generate(ctx context.Context, p Prompt) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, p Prompt) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

// Float32 returns a pointer to v, for Prompt.Temperature.
func Float32(v float32) *float32 {
	return &v
}
