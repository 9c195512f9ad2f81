package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/clausewise/internal/cache"
	"github.com/ppiankov/clausewise/internal/classify"
)

// RateLimiter blocks until a call for key may proceed
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// Classifier answers the document-type fallback with a language model
type Classifier struct {
	provider Provider
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  RateLimiter
	logger   *slog.Logger
}

var _ classify.Fallback = (*Classifier)(nil)

type ClassifierOption func(*Classifier)

// WithCache stores parsed answers; ttl 0 uses the cache default
func WithCache(c cache.Cache, ttl time.Duration) ClassifierOption {
	return func(cl *Classifier) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

func WithRateLimiter(l RateLimiter) ClassifierOption {
	return func(cl *Classifier) { cl.limiter = l }
}

func WithLogger(l *slog.Logger) ClassifierOption {
	return func(cl *Classifier) { cl.logger = l }
}

// NewClassifier wraps a provider
func NewClassifier(p Provider, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		provider: p,
		cache:    cache.Nop{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// cachedAnswer keeps the mode, which FallbackResult does not serialize
type cachedAnswer struct {
	PackID     string  `json:"pack_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Mode       string  `json:"mode"`
}

// Classify implements classify.Fallback
func (c *Classifier) Classify(ctx context.Context, excerpt string, profiles []classify.ProfileSummary) (*classify.FallbackResult, error) {
	if len(profiles) == 0 {
		return nil, errors.New("no profiles to choose from")
	}

	prompt := BuildClassificationPrompt(excerpt, profiles)
	key := cache.Key(c.provider.Name(), prompt)

	if data, ok := c.cache.Get(key); ok {
		var a cachedAnswer
		if err := json.Unmarshal(data, &a); err == nil {
			c.logger.Debug("fallback classification cache hit", "pack_id", a.PackID)
			return &classify.FallbackResult{PackID: a.PackID, Confidence: a.Confidence, Reasoning: a.Reasoning, Mode: a.Mode}, nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.provider.Name()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := c.provider.Complete(ctx, CompletionRequest{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return nil, err
	}

	result, err := ParseClassification(resp.Text)
	if err != nil {
		return nil, err
	}
	if !knownPack(profiles, result.PackID) {
		return nil, fmt.Errorf("unknown pack id %q", result.PackID)
	}
	result.Mode = resp.Mode

	data, err := json.Marshal(cachedAnswer{
		PackID:     result.PackID,
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
		Mode:       result.Mode,
	})
	if err == nil {
		if err := c.cache.Set(key, data, c.cacheTTL); err != nil {
			c.logger.Warn("failed to cache fallback classification", "err", err)
		}
	}

	return result, nil
}

// BuildClassificationPrompt lists the profiles and the excerpt and asks for
// a single JSON object
func BuildClassificationPrompt(excerpt string, profiles []classify.ProfileSummary) string {
	var b strings.Builder
	b.WriteString("You are a legal document classifier. Analyze the document excerpt and determine the most likely document type.\n\n")
	b.WriteString("Available document types:\n")
	for _, p := range profiles {
		fmt.Fprintf(&b, "- %s: %s\n", p.ID, strings.Join(p.DocTypeNames, ", "))
	}
	fmt.Fprintf(&b, "\nDocument excerpt (first %d characters):\n-----\n%s\n-----\n\n", utf8.RuneCountInString(excerpt), excerpt)
	b.WriteString(`Respond with ONLY a JSON object in this format:
{
    "pack_id": "most_likely_pack_id",
    "confidence": 0.85,
    "reasoning": "Brief explanation of why this classification fits"
}

Requirements:
- pack_id must be exactly one of the available pack IDs
- confidence should be 0.0-1.0
- reasoning should be 1-2 sentences max`)
	return b.String()
}

// ParseClassification extracts the JSON object from a model reply. Code
// fences and prose around the object are ignored. Confidence may be a
// number or a numeric string.
func ParseClassification(text string) (*classify.FallbackResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in response: %q", truncate(text, 80))
	}

	var raw struct {
		PackID     string          `json:"pack_id"`
		Confidence json.RawMessage `json:"confidence"`
		Reasoning  string          `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	raw.PackID = strings.TrimSpace(raw.PackID)
	if raw.PackID == "" {
		return nil, errors.New("response has no pack_id")
	}

	conf, err := parseConfidence(raw.Confidence)
	if err != nil {
		return nil, err
	}

	return &classify.FallbackResult{
		PackID:     raw.PackID,
		Confidence: conf,
		Reasoning:  strings.TrimSpace(raw.Reasoning),
	}, nil
}

func parseConfidence(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid confidence %s", raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid confidence %q", s)
	}
	return f, nil
}

func knownPack(profiles []classify.ProfileSummary, id string) bool {
	for _, p := range profiles {
		if p.ID == id {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
