package cli

import (
	"fmt"
	"log/slog"

	"github.com/ppiankov/clausewise/internal/cache"
	"github.com/ppiankov/clausewise/internal/llm"
	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/pipeline"
	"github.com/ppiankov/clausewise/internal/profile"
	"github.com/ppiankov/clausewise/internal/util"
	"github.com/ppiankov/clausewise/internal/validate"
	"github.com/ppiankov/clausewise/internal/worker"
)

// loadStore returns the built-in profiles, or the profiles of dir. Profiles
// with validation errors are rejected.
func loadStore(dir string) (profile.Store, error) {
	if dir == "" {
		return profile.Builtin(), nil
	}

	store, err := profile.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	v := validate.NewValidator(0)
	for _, p := range store.Profiles() {
		if issues := v.Validate(p); validate.HasErrors(issues) {
			for _, issue := range issues {
				slog.Error("invalid profile", "issue", issue.String())
			}
			return nil, fmt.Errorf("profile %q is invalid, run 'clausewise profiles validate --dir %s'", p.ID, dir)
		}
	}
	return store, nil
}

// newFallback wires the LLM classifier with its answer cache and rate
// limiter. It returns nil when no provider is configured.
func newFallback(cfg *model.Config, logger *slog.Logger) (*llm.Classifier, error) {
	if !cfg.Classifier.UseLLMFallback || cfg.LLM.Provider == "" {
		return nil, nil
	}

	provider, err := llm.NewProvider(llm.WithEnv(llm.ConfigFromModel(cfg.LLM)))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if provider == nil {
		return nil, nil
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	return llm.NewClassifier(provider,
		llm.WithCache(cache.New(cfg.Cache), cfg.Cache.DiskTTL),
		llm.WithRateLimiter(limiter),
		llm.WithLogger(logger),
	), nil
}

// newAnalyzer builds the analysis pipeline for cfg
func newAnalyzer(cfg *model.Config, profilesDir string, logger *slog.Logger) (*pipeline.Analyzer, error) {
	store, err := loadStore(profilesDir)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}

	fallback, err := newFallback(cfg, logger)
	if err != nil {
		return nil, err
	}
	if fallback != nil {
		opts = append(opts, pipeline.WithFallback(fallback))
		logger.Debug("classification fallback enabled", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}

	if userAgent != "" || maxBytes > 0 {
		opts = append(opts, pipeline.WithLoader(pipeline.NewLoader(fetchTimeout, userAgent, maxBytes, util.ProxyConfig{
			HTTPProxy:  cfg.LLM.HTTPProxy,
			HTTPSProxy: cfg.LLM.HTTPSProxy,
			NoProxy:    cfg.LLM.NoProxy,
		})))
	}

	return pipeline.New(cfg, store, opts...)
}
