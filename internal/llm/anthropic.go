package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// defaultAnthropicModel is used when no model is configured.
	defaultAnthropicModel = "claude-3-5-haiku-20241022"

	// maxRetries bounds retry attempts on transient API failures.
	maxRetries = 3

	// initialBackoff is the first retry delay; it doubles per attempt.
	initialBackoff = 1 * time.Second

	// maxResponseTokens caps the analysis length.
	maxResponseTokens = 1024
)

// AnthropicClient requests analysis from the Anthropic cloud API.
type AnthropicClient struct {
	client         anthropic.Client
	model          anthropic.Model
	maxRetries     int
	initialBackoff time.Duration
}

// NewAnthropicClient creates an Anthropic-backed Client. The
// ANTHROPIC_API_KEY environment variable takes precedence over the
// explicit apiKey argument.
func NewAnthropicClient(modelName, apiKey string) (*AnthropicClient, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or configure apiKey", ErrAPIKeyRequired)
	}

	if modelName == "" {
		modelName = defaultAnthropicModel
	}

	return &AnthropicClient{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          anthropic.Model(modelName),
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return ProviderAnthropic
}

// Model returns the configured model identifier.
func (c *AnthropicClient) Model() string {
	return string(c.model)
}

// Analyze sends the analysis prompt and returns the response text.
// Rate-limit and server errors are retried with exponential backoff;
// everything else fails immediately.
func (c *AnthropicClient) Analyze(ctx context.Context, req Request) (string, error) {
	prompt, err := BuildPrompt(req, 0)
	if err != nil {
		return "", err
	}

	text, err := c.callWithRetry(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelRequest, err)
	}
	return text, nil
}

func (c *AnthropicClient) callWithRetry(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxResponseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			if len(message.Content) == 0 {
				return "", errors.New("unexpected response format: no content blocks")
			}
			content := message.Content[0]
			if content.Type != "text" {
				return "", fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type)
			}
			return content.Text, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryable(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// isRetryable reports whether an API error is worth another attempt.
// Rate limiting (429) and server errors (5xx) are transient; auth and
// request errors are not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	return false
}
