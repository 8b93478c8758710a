// Package gemini provides a client for the Google Gemini API.
package gemini

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/finsight-io/finsight/internal/common"
)

const (
	// DefaultModel is used when config does not specify one.
	DefaultModel = "gemini-2.0-flash"

	// Extraction wants determinism, not creativity.
	extractionTemperature = 0.1
	extractionMaxTokens   = 1500
)

// Client implements the interfaces.LLMClient contract over the genai SDK.
type Client struct {
	client  *genai.Client
	model   string
	hasKey  bool
	limiter *rate.Limiter
	logger  *common.Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithModel sets the model to use.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithRateLimit sets the outbound request rate in requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client. An empty apiKey yields a client
// whose HasCredential reports false; callers decide whether that is fatal.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		model:   DefaultModel,
		hasKey:  apiKey != "",
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		logger:  common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if !c.hasKey {
		return c, nil
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = genaiClient
	return c, nil
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return c.hasKey && c.client != nil
}

// Close closes the client.
func (c *Client) Close() error {
	// The genai client doesn't have a Close method
	return nil
}

// GenerateJSON sends a strict-JSON prompt and returns the raw completion text.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	if !c.HasCredential() {
		return "", fmt.Errorf("no api key configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	c.logger.Debug().Str("model", c.model).Int("prompt_len", len(prompt)).Msg("Generating JSON content")

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](extractionTemperature),
		MaxOutputTokens:  extractionMaxTokens,
		ResponseMIMEType: "application/json",
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return extractTextFromResponse(result)
}

// Ping performs a minimal generation to verify connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	if !c.HasCredential() {
		return fmt.Errorf("no api key configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: 16,
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text("ping"), config)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if _, err := extractTextFromResponse(result); err != nil {
		return fmt.Errorf("ping returned no content: %w", err)
	}
	return nil
}

// extractTextFromResponse extracts text from a generate content response.
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}
	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	return text, nil
}
