package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/genewise-api/internal/config"
	"github.com/phrazzld/genewise-api/internal/generation"
	"github.com/phrazzld/genewise-api/internal/redact"
	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 2 * time.Second
	jitterPercent     = 50
	jsonMIMEType      = "application/json"
)

// modelsAPI is the subset of *genai.Models used by the generator.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements generation.Generator using the Gemini API.
type Generator struct {
	logger      *slog.Logger
	models      modelsAPI
	model       string
	temperature float32
	maxRetries  int
	baseDelay   time.Duration
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini-backed generator from LLM configuration.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(client.Models, logger, cfg), nil
}

func newGenerator(models modelsAPI, logger *slog.Logger, cfg config.LLMConfig) *Generator {
	if logger == nil {
		logger = slog.Default()
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelay := time.Duration(cfg.RetryDelaySeconds) * time.Second
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	return &Generator{
		logger:      logger.With("component", "gemini"),
		models:      models,
		model:       cfg.ModelName,
		temperature: cfg.Temperature,
		maxRetries:  maxRetries,
		baseDelay:   baseDelay,
	}
}

func validateConfig(cfg config.LLMConfig) error {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.ModelName) == "" {
		return fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	return nil
}

// Generate sends p to the model and returns its text reply. Transient
// failures are retried up to the configured limit.
func (g *Generator) Generate(ctx context.Context, p generation.Prompt) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	contents := []*genai.Content{genai.NewContentFromText(p.Instructions, genai.RoleUser)}
	cfg := g.contentConfig(p)

	backoff := retry.NewExponential(g.baseDelay)
	backoff = retry.WithJitterPercent(jitterPercent, backoff)
	backoff = retry.WithMaxRetries(uint64(g.maxRetries), backoff)

	var (
		text     string
		attempts int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		g.logger.DebugContext(ctx, "calling Gemini API",
			"attempt", attempts,
			"max_attempts", g.maxRetries+1,
			"json", p.JSON)

		var callErr error
		text, callErr = g.generateOnce(ctx, contents, cfg)
		if callErr == nil {
			return nil
		}
		if errors.Is(callErr, generation.ErrTransientFailure) && ctx.Err() == nil {
			g.logger.WarnContext(ctx, "transient Gemini error, will retry",
				"attempt", attempts,
				"error", redact.Error(callErr))
			return retry.RetryableError(callErr)
		}
		return callErr
	})

	switch {
	case err == nil:
		g.logger.DebugContext(ctx, "Gemini API call successful",
			"attempts", attempts,
			"response_length", len(text))
		return text, nil
	case ctx.Err() != nil:
		return "", fmt.Errorf("%w: %w", generation.ErrTransientFailure, ctx.Err())
	case errors.Is(err, generation.ErrTransientFailure):
		g.logger.ErrorContext(ctx, "Gemini retries exhausted",
			"attempts", attempts,
			"error", redact.Error(err))
		return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %w", generation.ErrGenerationFailed, g.maxRetries, err)
	default:
		g.logger.WarnContext(ctx, "permanent Gemini error, not retrying",
			"attempts", attempts,
			"error", redact.Error(err))
		return "", err
	}
}

func (g *Generator) contentConfig(p generation.Prompt) *genai.GenerateContentConfig {
	temperature := g.temperature
	if p.Temperature != nil {
		temperature = *p.Temperature
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if strings.TrimSpace(p.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if p.JSON {
		cfg.ResponseMIMEType = jsonMIMEType
	}
	return cfg
}

// generateOnce performs a single API call and classifies the outcome. API
// call errors are treated as transient; malformed and blocked responses
// are permanent.
func (g *Generator) generateOnce(
	ctx context.Context,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}
	return text, nil
}
