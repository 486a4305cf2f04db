package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	// defaultOllamaModel is used when no model is configured.
	defaultOllamaModel = "llama3"

	// availabilityTimeout bounds the pre-flight health check so a
	// stopped Ollama service fails fast instead of hanging the request.
	availabilityTimeout = 2 * time.Second
)

// OllamaClient requests analysis from a local Ollama endpoint.
// The endpoint address comes from the OLLAMA_HOST environment variable,
// defaulting to the standard local address.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates an Ollama-backed Client.
func NewOllamaClient(modelName string) (*OllamaClient, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create ollama client: %v", ErrModelRequest, err)
	}

	if modelName == "" {
		modelName = defaultOllamaModel
	}

	return &OllamaClient{
		client: client,
		model:  modelName,
	}, nil
}

// Name returns the provider name.
func (c *OllamaClient) Name() string {
	return ProviderOllama
}

// Model returns the configured model identifier.
func (c *OllamaClient) Model() string {
	return c.model
}

// available checks that the Ollama service responds before the
// expensive generation call is attempted.
func (c *OllamaClient) available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	_, err := c.client.List(ctx)
	return err == nil
}

// Analyze sends the analysis prompt to the local model and returns the
// response text. There is no retry: a stopped service or missing model
// surfaces immediately as ErrModelRequest.
func (c *OllamaClient) Analyze(ctx context.Context, req Request) (string, error) {
	if !c.available(ctx) {
		return "", fmt.Errorf("%w: ollama service not reachable (is it running, and is the model pulled?)", ErrModelRequest)
	}

	prompt, err := BuildPrompt(req, 0)
	if err != nil {
		return "", err
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
	}

	var response strings.Builder
	err = c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		response.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelRequest, err)
	}

	return strings.TrimSpace(response.String()), nil
}
