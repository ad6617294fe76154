package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/genewise-api/internal/analysis"
	"github.com/phrazzld/genewise-api/internal/config"
)

const (
	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"
	operationLocation     = "Operation-Location"
	defaultModelID        = "prebuilt-layout"
	defaultAPIVersion     = "2024-11-30"
	defaultRequestTimeout = 30 * time.Second
	maxResponseBytes      = 32 << 20
	maxErrorSnippetRunes  = 512
)

// Config captures what the client needs to reach the service.
type Config struct {
	Endpoint   string
	APIKey     string
	ModelID    string
	APIVersion string
	Timeout    time.Duration
}

// ConfigFrom maps application configuration onto a client Config.
func ConfigFrom(cfg config.DocumentAnalysisConfig) Config {
	return Config{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		ModelID:    cfg.ModelID,
		APIVersion: cfg.APIVersion,
		Timeout:    cfg.RequestTimeout(),
	}
}

// Client talks to the document analysis REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient validates cfg and constructs a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("%w: endpoint: %w", ErrInvalidConfig, err)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrInvalidConfig)
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = client.logger.With("component", "docintel")
	return client, nil
}

type analyzeRequest struct {
	URLSource    string `json:"urlSource,omitempty"`
	Base64Source []byte `json:"base64Source,omitempty"`
}

type operationResponse struct {
	Status        string          `json:"status"`
	AnalyzeResult json.RawMessage `json:"analyzeResult"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type analyzeResult struct {
	Content string            `json:"content"`
	Pages   []json.RawMessage `json:"pages"`
}

// Submit starts an analysis and returns the Operation-Location URL.
func (c *Client) Submit(ctx context.Context, req analysis.Request) (string, error) {
	body := analyzeRequest{URLSource: strings.TrimSpace(req.DocumentURL)}
	if body.URLSource == "" {
		body.Base64Source = req.Content
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("docintel submit: encode body: %w", err)
	}

	endpoint := c.analyzeURL()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("docintel submit: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, respBody, err := c.do(httpReq, "submit")
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusAccepted {
		return "", &StatusError{
			Op:         "submit",
			StatusCode: resp.StatusCode,
			Body:       snippet(respBody),
		}
	}

	handle := strings.TrimSpace(resp.Header.Get(operationLocation))
	c.logger.DebugContext(ctx, "analysis submitted", "model_id", c.cfg.ModelID, "has_handle", handle != "")
	return handle, nil
}

// Poll fetches the operation's current status.
func (c *Client) Poll(ctx context.Context, handle string) (*analysis.PollResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, handle, nil)
	if err != nil {
		return nil, fmt.Errorf("docintel poll: new request: %w", err)
	}

	resp, body, err := c.do(httpReq, "poll")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "poll", StatusCode: resp.StatusCode, Body: snippet(body)}
	}

	var op operationResponse
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, fmt.Errorf("docintel poll: decode response: %w", err)
	}

	out := &analysis.PollResponse{Status: op.Status}
	if op.Error != nil {
		out.Failure = &analysis.ServiceError{Code: op.Error.Code, Message: op.Error.Message}
	}
	if len(op.AnalyzeResult) > 0 && string(op.AnalyzeResult) != "null" {
		var result analyzeResult
		if err := json.Unmarshal(op.AnalyzeResult, &result); err != nil {
			return nil, fmt.Errorf("docintel poll: decode analyze result: %w", err)
		}
		out.Result = &analysis.Result{
			Content: result.Content,
			Pages:   len(result.Pages),
			Raw:     op.AnalyzeResult,
		}
	}
	return out, nil
}

// do sends req with the subscription key and returns the response with its
// body fully read. Retryable failures come back wrapped in analysis.ErrTransient.
func (c *Client) do(req *http.Request, op string) (*http.Response, []byte, error) {
	req.Header.Set(subscriptionKeyHeader, c.cfg.APIKey)
	req.Header.Set("User-Agent", "genewise-api")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, classify(fmt.Errorf("docintel %s: http error (timeout=%s): %w", op, c.cfg.Timeout, err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, classify(fmt.Errorf("docintel %s: read body: %w", op, err))
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, nil, classify(&StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       snippet(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		})
	}
	return resp, body, nil
}

func (c *Client) analyzeURL() string {
	path := fmt.Sprintf("documentintelligence/documentModels/%s:analyze", url.PathEscape(c.cfg.ModelID))
	query := url.Values{"api-version": []string{c.cfg.APIVersion}}
	return c.cfg.Endpoint + "/" + path + "?" + query.Encode()
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	runes := []rune(text)
	if len(runes) > maxErrorSnippetRunes {
		return string(runes[:maxErrorSnippetRunes]) + "..."
	}
	return text
}
