// Package llm talks to the optional language-model providers used as the
// document-type classification fallback.
package llm

import (
	"context"
	"time"

	"github.com/ppiankov/clausewise/internal/util"
)

const (
	defaultMaxTokens   = 300
	defaultTemperature = 0.0
	systemPrompt       = "You are a legal document classifier. Reply with JSON only."
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name, also used as the rate limiting key
	Name() string

	// Complete sends one prompt and returns the model's text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is a single-turn prompt
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string // empty uses the configured model
	MaxTokens   int    // 0 uses the configured limit
	Temperature float64
}

// CompletionResponse is the provider's answer
type CompletionResponse struct {
	Text       string
	Model      string
	Mode       string // "chat" or "completion", after the API used
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	Timeout   int // seconds
	MaxTokens int

	Proxy util.ProxyConfig
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: defaultMaxTokens,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) model(req CompletionRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return defaultMaxTokens
}
