package model

import "time"

// Config holds all analysis configuration. It is built once and passed by
// value or pointer into components; nothing reads process-wide state.
type Config struct {
	Classifier   ClassifierConfig   `yaml:"classifier" mapstructure:"classifier"`
	Guards       GuardConfig        `yaml:"guards" mapstructure:"guards"`
	Citations    CitationConfig     `yaml:"citations" mapstructure:"citations"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// ClassifierConfig tunes document-type scoring
type ClassifierConfig struct {
	HeadChars           int           `yaml:"head_chars" mapstructure:"head_chars"`                     // scoring surface
	AliasWeight         float64       `yaml:"alias_weight" mapstructure:"alias_weight"`                 // per exact alias match
	LengthBonusDivisor  float64       `yaml:"length_bonus_divisor" mapstructure:"length_bonus_divisor"` // bonus = min(len/divisor, 1)
	MultiAliasFactor    float64       `yaml:"multi_alias_factor" mapstructure:"multi_alias_factor"`     // applied when a profile has >1 alias
	ScoreScale          float64       `yaml:"score_scale" mapstructure:"score_scale"`                   // confidence = score / scale
	ConfidenceThreshold float64       `yaml:"confidence_threshold" mapstructure:"confidence_threshold"` // below this, ask the fallback
	UseLLMFallback      bool          `yaml:"use_llm_fallback" mapstructure:"use_llm_fallback"`
	FallbackTimeout     time.Duration `yaml:"fallback_timeout" mapstructure:"fallback_timeout"`
	FallbackExcerpt     int           `yaml:"fallback_excerpt" mapstructure:"fallback_excerpt"`
	MinFallbackScore    float64       `yaml:"min_fallback_confidence" mapstructure:"min_fallback_confidence"`
	MaxReasonParts      int           `yaml:"max_reason_parts" mapstructure:"max_reason_parts"`
}

// GuardConfig holds the lexical heuristics used to tell money from share counts
type GuardConfig struct {
	WindowPadding     int      `yaml:"window_padding" mapstructure:"window_padding"`           // generic monetary guard
	RuleWindowPadding int      `yaml:"rule_window_padding" mapstructure:"rule_window_padding"` // rule-context normalization
	CurrencySymbols   []string `yaml:"currency_symbols" mapstructure:"currency_symbols"`
	CurrencyWords     []string `yaml:"currency_words" mapstructure:"currency_words"`
	UnitWords         []string `yaml:"unit_words" mapstructure:"unit_words"`
	MonetaryRuleWords []string `yaml:"monetary_rule_keywords" mapstructure:"monetary_rule_keywords"`
}

// CitationConfig controls quote extraction
type CitationConfig struct {
	QuotePadding   int `yaml:"quote_padding" mapstructure:"quote_padding"`
	MaxQuoteLength int `yaml:"max_quote_length" mapstructure:"max_quote_length"`
}

// LLMConfig configures the optional classification fallback provider
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"-" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures caching of fallback answers
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig limits calls to the fallback provider
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

type OutputConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Pretty  bool   `yaml:"pretty" mapstructure:"pretty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			HeadChars:           6000,
			AliasWeight:         5.0,
			LengthBonusDivisor:  10000,
			MultiAliasFactor:    0.9,
			ScoreScale:          10.0,
			ConfidenceThreshold: 0.65,
			UseLLMFallback:      true,
			FallbackTimeout:     30 * time.Second,
			FallbackExcerpt:     2000,
			MinFallbackScore:    0.3,
			MaxReasonParts:      5,
		},
		Guards: GuardConfig{
			WindowPadding:     40,
			RuleWindowPadding: 60,
			CurrencySymbols:   []string{"$", "£", "€", "¥"},
			CurrencyWords:     []string{"usd", "dollar", "dollars", "gbp", "eur", "euro", "euros", "yen", "cad", "aud"},
			UnitWords:         []string{"share", "shares", "unit", "units", "warrant", "warrants", "option", "options"},
			MonetaryRuleWords: []string{"value", "cap", "damages", "penalty", "payment", "consideration", "fee", "cost", "price", "amount"},
		},
		Citations: CitationConfig{
			QuotePadding:   140,
			MaxQuoteLength: 420,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Timeout:   30,
			MaxTokens: 300,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".clausewise/cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Output: OutputConfig{
			Dir:    "./clausewise-reports",
			Pretty: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
