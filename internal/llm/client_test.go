package llm

import (
	"errors"
	"testing"
)

// TestNewClient tests the provider factory.
func TestNewClient(t *testing.T) {
	t.Run("unknown provider is rejected", func(t *testing.T) {
		_, err := NewClient("openrouter", "", "")
		if !errors.Is(err, ErrUnknownProvider) {
			t.Errorf("got %v, expected ErrUnknownProvider", err)
		}
	})

	t.Run("anthropic without key is rejected", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		_, err := NewClient(ProviderAnthropic, "", "")
		if !errors.Is(err, ErrAPIKeyRequired) {
			t.Errorf("got %v, expected ErrAPIKeyRequired", err)
		}
	})

	t.Run("anthropic with key reports provider metadata", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		client, err := NewClient(ProviderAnthropic, "claude-3-5-haiku-20241022", "test-key")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Name() != ProviderAnthropic {
			t.Errorf("got %q, expected anthropic", client.Name())
		}
		if client.Model() != "claude-3-5-haiku-20241022" {
			t.Errorf("got %q, expected configured model", client.Model())
		}
	})

	t.Run("anthropic defaults the model", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		client, err := NewClient(ProviderAnthropic, "", "test-key")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Model() == "" {
			t.Error("expected a default model")
		}
	})

	t.Run("ollama defaults the model", func(t *testing.T) {
		client, err := NewClient(ProviderOllama, "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Model() != "llama3" {
			t.Errorf("got %q, expected llama3", client.Model())
		}
	})
}
