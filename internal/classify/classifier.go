// Package classify picks the rule profile that best matches a document.
//
// Scoring is a pure function of the document head and the profiles: exact
// alias matches, weighted keywords, section-header patterns and a small
// length bonus. When the best score is not confident enough an optional
// Fallback is asked for a second opinion; its answer is merged into the
// candidate list and can win only by scoring strictly higher.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ppiankov/clausewise/internal/model"
)

const (
	ReasonNoProfiles   = "no_packs_available"
	ReasonNoCandidates = "no_heuristic_matches_fallback_to_default"
)

var (
	multiSpace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// Result is the outcome of one classification
type Result struct {
	Selected   string
	Candidates []model.DocTypeCandidate
	Reason     string
	Confidence float64

	// Err is model.ErrClassificationAmbiguous when nothing scored and the
	// first profile was chosen by default. It is informational
	Err error
}

// Classification converts the result for a report
func (r Result) Classification() model.Classification {
	return model.Classification{
		Selected:   r.Selected,
		Candidates: r.Candidates,
		Reason:     r.Reason,
		Confidence: r.Confidence,
	}
}

// Option configures a Classifier
type Option func(*Classifier)

// WithFallback sets the secondary classifier
func WithFallback(f Fallback) Option {
	return func(c *Classifier) { c.fallback = f }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// Classifier scores documents against profiles. It is safe for concurrent use
type Classifier struct {
	cfg      model.ClassifierConfig
	weights  *WeightTable
	fallback Fallback
	logger   *slog.Logger

	patterns sync.Map // profile pattern source -> *regexp.Regexp or error
	terms    sync.Map // alias or keyword -> *regexp.Regexp
}

// New creates a classifier
func New(cfg model.ClassifierConfig, opts ...Option) *Classifier {
	c := &Classifier{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.weights == nil {
		c.weights = DefaultWeights()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Classify selects a profile for text. It never fails: every outcome,
// including fallback errors, is explained in Result.Reason
func (c *Classifier) Classify(ctx context.Context, text string, profiles []*model.Profile) Result {
	if len(profiles) == 0 {
		return Result{Reason: ReasonNoProfiles}
	}

	candidates := c.Score(text, profiles)
	if len(candidates) == 0 {
		return Result{
			Selected:   profiles[0].ID,
			Candidates: []model.DocTypeCandidate{},
			Reason:     ReasonNoCandidates,
			Err:        model.ErrClassificationAmbiguous,
		}
	}

	top := candidates[0]
	confidence := top.Score / c.scale()
	heuristicReason := fmt.Sprintf("heuristic_confident (score=%.1f, confidence=%.2f)", top.Score, confidence)

	if confidence >= c.cfg.ConfidenceThreshold || c.fallback == nil || !c.cfg.UseLLMFallback {
		return c.result(candidates, heuristicReason)
	}

	fb, err := c.askFallback(ctx, text, profiles)
	if err != nil {
		c.logger.Warn("classification fallback rejected", "error", err, "heuristic_confidence", confidence)
		reason := fmt.Sprintf("heuristic_low_confidence (score=%.1f, confidence=%.2f < threshold=%g); fallback_rejected: %v",
			top.Score, confidence, c.cfg.ConfidenceThreshold, err)
		return c.result(candidates, reason)
	}

	merged := append(append([]model.DocTypeCandidate(nil), candidates...), *fb)
	sortCandidates(merged)
	reason := fmt.Sprintf("llm_fallback_triggered (heuristic_confidence=%.2f < threshold=%g)", confidence, c.cfg.ConfidenceThreshold)
	return c.result(merged, reason)
}

func (c *Classifier) result(candidates []model.DocTypeCandidate, reason string) Result {
	return Result{
		Selected:   candidates[0].PackID,
		Candidates: candidates,
		Reason:     reason,
		Confidence: math.Min(candidates[0].Score/c.scale(), 1),
	}
}

// askFallback returns the fallback's answer as a candidate, or why it was
// not usable
func (c *Classifier) askFallback(ctx context.Context, text string, profiles []*model.Profile) (*model.DocTypeCandidate, error) {
	if c.cfg.FallbackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.FallbackTimeout)
		defer cancel()
	}

	excerpt := truncate(text, c.cfg.FallbackExcerpt)
	answer, err := c.fallback.Classify(ctx, excerpt, Summaries(profiles))
	if err != nil {
		return nil, err
	}
	if answer == nil {
		return nil, errors.New("no answer")
	}

	var chosen *model.Profile
	for _, p := range profiles {
		if p.ID == answer.PackID {
			chosen = p
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("unknown pack id %q", answer.PackID)
	}
	if math.IsNaN(answer.Confidence) || answer.Confidence <= c.cfg.MinFallbackScore {
		return nil, fmt.Errorf("confidence %.2f not above %.2f", answer.Confidence, c.cfg.MinFallbackScore)
	}

	reasoning := answer.Reasoning
	if reasoning == "" {
		reasoning = "LLM classification"
	}
	mode := answer.Mode
	if mode == "" {
		mode = "fallback"
	}
	return &model.DocTypeCandidate{
		PackID:  chosen.ID,
		DocType: chosen.PrimaryDocType(),
		Score:   math.Min(answer.Confidence, 1) * c.scale(),
		Reason:  fmt.Sprintf("llm_fallback(%s): %s", mode, reasoning),
	}, nil
}

// Score returns every profile with a positive score, best first. Ties keep
// profile order
func (c *Classifier) Score(text string, profiles []*model.Profile) []model.DocTypeCandidate {
	candidates := []model.DocTypeCandidate{}
	if text == "" {
		return candidates
	}
	head := strings.ToLower(truncate(text, c.cfg.HeadChars))
	// aliases are stored without punctuation, so they are matched against
	// a head normalized the same way
	aliasHead := normalize(head)

	for _, p := range profiles {
		total := 0.0
		var reasons []string
		add := func(score float64, format string, args ...any) {
			total += score
			reasons = append(reasons, fmt.Sprintf(format, args...))
		}

		for _, alias := range NormalizeAliases(p.DocTypeNames) {
			if n := len(c.termRegexp(alias).FindAllStringIndex(aliasHead, -1)); n > 0 {
				add(float64(n)*c.cfg.AliasWeight, "title_match(%s): %.1f", alias, float64(n)*c.cfg.AliasWeight)
			}
		}

		for i, kw := range c.weights.Keywords {
			if n := len(c.weights.keywordRes[i].FindAllStringIndex(head, -1)); n > 0 {
				add(float64(n)*kw.Weight, "keyword(%s): %.1f", kw.Term, float64(n)*kw.Weight)
			}
		}
		for _, kw := range p.Keywords {
			if kw.Term == "" || kw.Weight <= 0 {
				continue
			}
			if n := len(c.termRegexp(strings.ToLower(kw.Term)).FindAllStringIndex(head, -1)); n > 0 {
				add(float64(n)*kw.Weight, "keyword(%s): %.1f", kw.Term, float64(n)*kw.Weight)
			}
		}

		for i, sp := range c.weights.SectionPatterns {
			if n := len(c.weights.sectionRes[i].FindAllStringIndex(head, -1)); n > 0 {
				add(float64(n)*sp.Weight, "section(%s): %.1f", sp.Pattern, float64(n)*sp.Weight)
			}
		}
		for _, sp := range p.SectionPatterns {
			re := c.profilePattern(p.ID, sp.Pattern)
			if re == nil || sp.Weight <= 0 {
				continue
			}
			if n := len(re.FindAllStringIndex(head, -1)); n > 0 {
				add(float64(n)*sp.Weight, "section(%s): %.1f", sp.Pattern, float64(n)*sp.Weight)
			}
		}

		bonus := c.lengthBonus(len(text))
		total += bonus
		if bonus > 0.1 {
			reasons = append(reasons, fmt.Sprintf("length_bonus: %.1f", bonus))
		}

		if len(p.DocTypeNames) > 1 {
			total *= c.cfg.MultiAliasFactor
		}

		if total > 0 {
			if limit := c.cfg.MaxReasonParts; limit > 0 && len(reasons) > limit {
				reasons = reasons[:limit]
			}
			candidates = append(candidates, model.DocTypeCandidate{
				PackID:  p.ID,
				DocType: p.PrimaryDocType(),
				Score:   total,
				Reason:  strings.Join(reasons, "; "),
			})
		}
	}

	sortCandidates(candidates)
	return candidates
}

func (c *Classifier) lengthBonus(n int) float64 {
	if c.cfg.LengthBonusDivisor <= 0 {
		return 0
	}
	return math.Min(float64(n)/c.cfg.LengthBonusDivisor, 1)
}

func (c *Classifier) scale() float64 {
	if c.cfg.ScoreScale <= 0 {
		return 1
	}
	return c.cfg.ScoreScale
}

// profilePattern compiles a profile's section pattern once. Invalid
// patterns are logged and skipped; validate reports them as errors
func (c *Classifier) profilePattern(profileID, pattern string) *regexp.Regexp {
	if cached, ok := c.patterns.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := sectionRegexp(pattern)
	if err != nil {
		c.logger.Warn("skipping invalid section pattern", "profile", profileID, "pattern", pattern, "error", err)
		c.patterns.Store(pattern, err)
		return nil
	}
	c.patterns.Store(pattern, re)
	return re
}

// termRegexp compiles a whole-word matcher for an alias or keyword once
func (c *Classifier) termRegexp(term string) *regexp.Regexp {
	if cached, ok := c.terms.Load(term); ok {
		return cached.(*regexp.Regexp)
	}
	re, _ := c.terms.LoadOrStore(term, keywordRegexp(term))
	return re.(*regexp.Regexp)
}

// NormalizeAliases lowercases aliases, strips punctuation, collapses
// whitespace and drops empty and duplicate entries
func NormalizeAliases(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		norm := normalize(name)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	return out
}

func normalize(s string) string {
	s = punctuation.ReplaceAllString(strings.ToLower(s), "")
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

func sortCandidates(candidates []model.DocTypeCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// truncate cuts s to at most n bytes without splitting a rune. n <= 0 means no limit
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
