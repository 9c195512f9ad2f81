package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/util"
)

// NewProvider creates a provider from configuration. An empty provider
// name disables the fallback and returns nil, nil.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		MaxTokens: c.MaxTokens,
		Proxy: util.ProxyConfig{
			HTTPProxy:  c.HTTPProxy,
			HTTPSProxy: c.HTTPSProxy,
			NoProxy:    c.NoProxy,
		},
	}
}

// WithEnv fills an empty API key or base URL from the provider's usual
// environment variables (OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_BASE_URL).
func WithEnv(config Config) Config {
	return withLookup(config, os.Getenv)
}

func withLookup(config Config, getenv func(string) string) Config {
	switch strings.ToLower(config.Provider) {
	case "openai":
		if config.APIKey == "" {
			config.APIKey = getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if config.APIKey == "" {
			config.APIKey = getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = getenv("OLLAMA_BASE_URL")
		}
	}
	return config
}
