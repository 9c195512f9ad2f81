package condition

import (
	"log/slog"

	"github.com/patrickmn/go-cache"

	"github.com/ppiankov/clausewise/internal/model"
)

const (
	warnRiskStatement  = "Rule evaluation failed - manual review required"
	warnRecommendation = "Check rule condition syntax and key term availability"
)

// Evaluator turns rule definitions into results. Compiled programs are
// cached by condition text; an Evaluator is safe for concurrent use
type Evaluator struct {
	programs *cache.Cache
	logger   *slog.Logger
}

// NewEvaluator creates an evaluator. A nil logger uses slog.Default()
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		programs: cache.New(cache.NoExpiration, 0),
		logger:   logger,
	}
}

// Compile returns the cached program for a condition, compiling it on first use.
// Compile errors are not cached
func (e *Evaluator) Compile(source string) (*Program, error) {
	if cached, ok := e.programs.Get(source); ok {
		return cached.(*Program), nil
	}
	prog, err := Compile(source)
	if err != nil {
		return nil, err
	}
	e.programs.SetDefault(source, prog)
	return prog, nil
}

// Evaluate runs one rule. Errors never escape: a condition that cannot be
// compiled or evaluated yields a WARN result describing the error
func (e *Evaluator) Evaluate(rule model.RuleDefinition, facts FactContext) model.RuleResult {
	result := model.RuleResult{
		RuleID:   rule.ID,
		Label:    rule.Label,
		Category: rule.Category,
		Severity: rule.Severity,
	}

	passed, err := e.eval(rule.Condition, facts)
	if err != nil {
		e.logger.Warn("rule evaluation failed", "rule", rule.ID, "condition", rule.Condition, "error", err)
		result.Status = model.StatusWarn
		result.Severity = model.SeverityMedium
		result.Message = "Rule evaluation error: " + err.Error()
		result.RiskStatement = warnRiskStatement
		result.Recommendation = warnRecommendation
		return result
	}

	if passed {
		result.Status = model.StatusPass
		result.Message = rule.SuccessMessage
		return result
	}
	result.Status = model.StatusFail
	result.Message = rule.FailureMessage
	result.RiskStatement = rule.RiskStatement
	result.Recommendation = rule.Recommendation
	return result
}

// EvaluateAll evaluates every rule in order without stopping at failures
func (e *Evaluator) EvaluateAll(rules []model.RuleDefinition, facts FactContext) []model.RuleResult {
	results := make([]model.RuleResult, 0, len(rules))
	for _, rule := range rules {
		results = append(results, e.Evaluate(rule, facts))
	}
	return results
}

func (e *Evaluator) eval(source string, facts FactContext) (bool, error) {
	prog, err := e.Compile(source)
	if err != nil {
		return false, err
	}
	return prog.EvalBool(facts)
}
