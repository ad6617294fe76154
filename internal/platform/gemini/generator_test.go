package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/genewise-api/internal/config"
	"github.com/phrazzld/genewise-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type call struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type reply struct {
	resp *genai.GenerateContentResponse
	err  error
}

// fakeModels replays scripted replies and records every call.
type fakeModels struct {
	mu      sync.Mutex
	replies []reply
	calls   []call
}

func (f *fakeModels) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{model: model, contents: contents, config: cfg})
	i := len(f.calls) - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i].resp, f.replies[i].err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey: "test-key",
		ModelName:    "gemini-test",
		Temperature:  0.2,
		MaxRetries:   2,
	}
}

func newTestGenerator(models modelsAPI, cfg config.LLMConfig) *Generator {
	g := newGenerator(models, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	g.baseDelay = time.Millisecond
	return g
}

func TestGenerateSuccess(t *testing.T) {
	t.Parallel()

	models := &fakeModels{replies: []reply{{resp: textResponse("  <p>Hola</p>\n")}}}
	g := newTestGenerator(models, testConfig())

	out, err := g.Generate(context.Background(), generation.Prompt{
		System:       "Eres un asistente experto en genética.",
		Instructions: "Resume el informe.",
		JSON:         true,
		Temperature:  generation.Float32(0),
	})

	require.NoError(t, err)
	assert.Equal(t, "<p>Hola</p>", out)

	require.Len(t, models.calls, 1)
	c := models.calls[0]
	assert.Equal(t, "gemini-test", c.model)
	require.Len(t, c.contents, 1)
	assert.Equal(t, "Resume el informe.", c.contents[0].Parts[0].Text)
	require.NotNil(t, c.config.SystemInstruction)
	assert.Equal(t, "Eres un asistente experto en genética.", c.config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", c.config.ResponseMIMEType)
	require.NotNil(t, c.config.Temperature)
	assert.Equal(t, float32(0), *c.config.Temperature)
}

// TestGenerateDefaults verifies the configured temperature applies and that
// plain-text prompts set no system instruction or MIME type.
func TestGenerateDefaults(t *testing.T) {
	t.Parallel()

	models := &fakeModels{replies: []reply{{resp: textResponse("ok")}}}
	g := newTestGenerator(models, testConfig())

	_, err := g.Generate(context.Background(), generation.Prompt{Instructions: "x"})

	require.NoError(t, err)
	c := models.calls[0]
	assert.Nil(t, c.config.SystemInstruction)
	assert.Empty(t, c.config.ResponseMIMEType)
	assert.InDelta(t, 0.2, *c.config.Temperature, 1e-6)
}

func TestGenerateRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	models := &fakeModels{replies: []reply{
		{err: errors.New("googleapi: Error 429: quota exceeded")},
		{err: errors.New("googleapi: Error 503: unavailable")},
		{resp: textResponse("recovered")},
	}}
	g := newTestGenerator(models, testConfig())

	out, err := g.Generate(context.Background(), generation.Prompt{Instructions: "x"})

	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Len(t, models.calls, 3)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	t.Parallel()

	models := &fakeModels{replies: []reply{{err: errors.New("connection reset")}}}
	g := newTestGenerator(models, testConfig())

	_, err := g.Generate(context.Background(), generation.Prompt{Instructions: "x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "exceeded maximum retry attempts (2)")
	assert.Len(t, models.calls, 3)
}

func TestGeneratePermanentErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want error
	}{
		{
			name: "nil response",
			resp: nil,
			want: generation.ErrInvalidResponse,
		},
		{
			name: "no candidates",
			resp: &genai.GenerateContentResponse{},
			want: generation.ErrInvalidResponse,
		},
		{
			name: "safety block",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonSafety,
			}}},
			want: generation.ErrContentBlocked,
		},
		{
			name: "nil content",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonStop,
			}}},
			want: generation.ErrInvalidResponse,
		},
		{
			name: "blank text",
			resp: textResponse("   "),
			want: generation.ErrInvalidResponse,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			models := &fakeModels{replies: []reply{{resp: tc.resp}}}
			g := newTestGenerator(models, testConfig())

			_, err := g.Generate(context.Background(), generation.Prompt{Instructions: "x"})

			assert.ErrorIs(t, err, tc.want)
			assert.Len(t, models.calls, 1, "permanent errors are not retried")
		})
	}
}

func TestGenerateCanceledContext(t *testing.T) {
	t.Parallel()

	models := &fakeModels{replies: []reply{{err: errors.New("unavailable")}}}
	g := newTestGenerator(models, testConfig())
	g.baseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, generation.Prompt{Instructions: "x"})

	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	t.Parallel()

	models := &fakeModels{replies: []reply{{resp: textResponse("never")}}}
	g := newTestGenerator(models, testConfig())

	_, err := g.Generate(context.Background(), generation.Prompt{System: "only system"})

	assert.ErrorIs(t, err, generation.ErrEmptyPrompt)
	assert.Empty(t, models.calls)
}

func TestNewGeneratorValidation(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.GeminiAPIKey = ""
	_, err := NewGenerator(context.Background(), nil, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg = testConfig()
	cfg.ModelName = " "
	_, err = NewGenerator(context.Background(), nil, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestNewGeneratorRetryDefaults(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxRetries = -1
	cfg.RetryDelaySeconds = 0

	g := newGenerator(&fakeModels{}, nil, cfg)

	assert.Equal(t, defaultMaxRetries, g.maxRetries)
	assert.Equal(t, defaultBaseDelay, g.baseDelay)
}
