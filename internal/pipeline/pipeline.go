// Package pipeline runs the end-to-end analysis of a document: profile
// selection, built-in checks, normalization, profile rules, citation
// location and risk assessment.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/clausewise/internal/classify"
	"github.com/ppiankov/clausewise/internal/condition"
	"github.com/ppiankov/clausewise/internal/guard"
	"github.com/ppiankov/clausewise/internal/locate"
	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/normalize"
	"github.com/ppiankov/clausewise/internal/profile"
	"github.com/ppiankov/clausewise/internal/rules"
	"github.com/ppiankov/clausewise/internal/score"
	"github.com/ppiankov/clausewise/internal/util"
)

// Analyzer orchestrates the complete analysis. It holds no per-document
// state and is safe for concurrent use.
type Analyzer struct {
	config     *model.Config
	store      profile.Store
	loader     *Loader
	classifier *classify.Classifier
	evaluator  *condition.Evaluator
	normalizer *normalize.Normalizer
	scorer     *score.Scorer
	logger     *slog.Logger
	now        func() time.Time

	fallback classify.Fallback
}

type Option func(*Analyzer)

// WithFallback sets the classifier used when heuristic confidence is low
func WithFallback(f classify.Fallback) Option {
	return func(a *Analyzer) { a.fallback = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithLoader replaces the default document loader
func WithLoader(l *Loader) Option {
	return func(a *Analyzer) { a.loader = l }
}

// New creates an analyzer over the profiles of store
func New(cfg *model.Config, store profile.Store, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		config: cfg,
		store:  store,
		scorer: score.NewScorer(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	guards, err := guard.New(cfg.Guards)
	if err != nil {
		return nil, fmt.Errorf("guards: %w", err)
	}
	a.normalizer = normalize.New(guards, a.logger)
	a.evaluator = condition.NewEvaluator(a.logger)

	classifierOpts := []classify.Option{classify.WithLogger(a.logger)}
	if a.fallback != nil {
		classifierOpts = append(classifierOpts, classify.WithFallback(a.fallback))
	}
	a.classifier = classify.New(cfg.Classifier, classifierOpts...)

	if a.loader == nil {
		a.loader = NewLoader(30*time.Second, "clausewise", DefaultMaxBytes, util.ProxyConfig{
			HTTPProxy:  cfg.LLM.HTTPProxy,
			HTTPSProxy: cfg.LLM.HTTPSProxy,
			NoProxy:    cfg.LLM.NoProxy,
		})
	}

	return a, nil
}

// Classify selects a profile for text without analyzing it
func (a *Analyzer) Classify(ctx context.Context, text string) classify.Result {
	return a.classifier.Classify(ctx, text, a.store.Profiles())
}

// Analyze classifies the document and analyzes it under the selected profile
func (a *Analyzer) Analyze(ctx context.Context, doc *Document, facts map[string]any) (*model.Report, error) {
	res := a.Classify(ctx, doc.Text)

	p, ok := a.store.Get(res.Selected)
	if !ok {
		p = profile.Default()
		a.logger.Warn("no profile selected, using built-in default", "document", doc.Name, "reason", res.Reason)
	}
	return a.analyze(doc, facts, p, res.Classification()), nil
}

// AnalyzeAs skips classification and analyzes under the given profile
func (a *Analyzer) AnalyzeAs(ctx context.Context, doc *Document, facts map[string]any, profileID string) (*model.Report, error) {
	p, ok := a.store.Get(profileID)
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", profileID)
	}
	cls := model.Classification{
		Selected:   p.ID,
		Candidates: []model.DocTypeCandidate{},
		Reason:     "profile_forced",
		Confidence: 1,
	}
	return a.analyze(doc, facts, p, cls), nil
}

// Load reads a document with the analyzer's loader
func (a *Analyzer) Load(ctx context.Context, source string) (*Document, error) {
	return a.loader.Load(ctx, source)
}

// AnalyzeFile loads a document and its sidecar facts and analyzes it
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*model.Report, error) {
	doc, err := a.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	var facts map[string]any
	if !isURL(path) {
		facts, err = LoadSidecarFacts(path)
		if err != nil {
			return nil, err
		}
	}
	return a.Analyze(ctx, doc, facts)
}

func (a *Analyzer) analyze(doc *Document, facts map[string]any, p *model.Profile, cls model.Classification) *model.Report {
	start := a.now()
	text := doc.Text
	log := a.logger.With("document", doc.Name, "profile", p.ID)

	findings, _ := rules.NewChecker(p.Policy, a.config.Citations).Run(text)
	findings = a.normalizer.Normalize(text, p.Policy, findings)

	ruleResults, err := rules.EvaluateRules(a.evaluator, p, facts)
	if err != nil {
		log.Warn("some facts could not be used and were treated as null", "err", err)
	}

	locator := locate.New(text)
	for i := range findings {
		findings[i].Citations = locator.EnhanceAll(findings[i].Citations)
	}
	for i := range ruleResults {
		ruleResults[i].Citations = locator.EnhanceAll(ruleResults[i].Citations)
		if ruleResults[i].Status == model.StatusWarn {
			log.Warn("rule evaluation error", "rule", ruleResults[i].RuleID, "message", ruleResults[i].Message)
		}
	}

	all := append(rules.ToRuleResults(findings), ruleResults...)
	risk := a.scorer.BuildRiskAssessment(all)

	passed := true
	for _, r := range all {
		if r.Failed() {
			passed = false
			break
		}
	}

	report := &model.Report{
		ID:             uuid.NewString(),
		DocumentName:   doc.Name,
		PackID:         p.ID,
		AnalyzedAt:     start.UTC(),
		Classification: cls,
		Findings:       score.RankFindings(findings),
		RuleResults:    score.RankResults(ruleResults),
		Risk:           risk,
		PassedAll:      passed,
	}

	log.Debug("analysis complete",
		"risk", risk.OverallRiskLevel,
		"findings", len(findings),
		"rules", len(ruleResults),
		"duration", a.now().Sub(start))
	return report
}
