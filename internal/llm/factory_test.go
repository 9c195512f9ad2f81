package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/classify"
	"github.com/ppiankov/clausewise/internal/model"
)

func testProfiles() []*model.Profile {
	return []*model.Profile{
		{ID: "msa", DocTypeNames: []string{"Master Services Agreement"}},
		{ID: "nda", DocTypeNames: []string{"Non-Disclosure Agreement"}},
	}
}

func classifyConfig() model.ClassifierConfig {
	cfg := model.DefaultConfig().Classifier
	cfg.FallbackTimeout = 0
	return cfg
}

var _ classify.Fallback = (*Classifier)(nil)

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewProvider(Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider(Config{Provider: "claude", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	p, err = NewProvider(Config{Provider: "ollama", Model: "mistral"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	_, err = NewProvider(Config{Provider: "palm"})
	assert.ErrorContains(t, err, "unknown LLM provider")

	_, err = NewProvider(Config{Provider: "openai"})
	assert.Error(t, err, "missing key")
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{
		Provider:   "anthropic",
		Model:      "claude",
		APIKey:     "k",
		Timeout:    10,
		MaxTokens:  200,
		HTTPSProxy: "http://proxy:8080",
	})

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 200, cfg.MaxTokens)
	assert.Equal(t, "http://proxy:8080", cfg.Proxy.HTTPSProxy)
}

func TestWithLookup(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":    "sk-open",
		"ANTHROPIC_API_KEY": "sk-ant",
		"OLLAMA_BASE_URL":   "http://gpu:11434",
	}
	getenv := func(k string) string { return env[k] }

	assert.Equal(t, "sk-open", withLookup(Config{Provider: "openai"}, getenv).APIKey)
	assert.Equal(t, "explicit", withLookup(Config{Provider: "openai", APIKey: "explicit"}, getenv).APIKey)
	assert.Equal(t, "sk-ant", withLookup(Config{Provider: "anthropic"}, getenv).APIKey)
	assert.Equal(t, "http://gpu:11434", withLookup(Config{Provider: "ollama"}, getenv).BaseURL)
	assert.Empty(t, withLookup(Config{}, getenv).APIKey)
}
