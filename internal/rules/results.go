package rules

import (
	"github.com/ppiankov/clausewise/internal/condition"
	"github.com/ppiankov/clausewise/internal/model"
)

// ToRuleResults converts built-in check findings for risk aggregation.
// Findings from unknown checks keep their own id and severity.
func ToRuleResults(findings []model.Finding) []model.RuleResult {
	results := make([]model.RuleResult, 0, len(findings))
	for _, f := range findings {
		label, severity := f.RuleID, f.Severity
		if check, ok := LookupCheck(f.RuleID); ok {
			label = check.Label
			if severity == "" {
				severity = check.Severity
			}
		}
		if severity == "" {
			severity = model.SeverityMedium
		}

		status := model.StatusPass
		if !f.Passed {
			status = model.StatusFail
		}
		short, _ := f.TagValue(model.TagReasonShort)

		results = append(results, model.RuleResult{
			RuleID:      f.RuleID,
			Label:       label,
			Category:    "compliance",
			Status:      status,
			Severity:    severity,
			Message:     f.Details,
			Citations:   append([]model.Citation(nil), f.Citations...),
			ReasonShort: short,
		})
	}
	return results
}

// EvaluateRules runs every rule of the profile against the extracted facts.
// Each declared fact is present in the context, null when not extracted.
// The error reports facts that could not be converted; they are treated as
// null and the results are complete either way.
func EvaluateRules(ev *condition.Evaluator, profile *model.Profile, extracted map[string]any) ([]model.RuleResult, error) {
	facts, err := condition.NewFactContext(profile.FactNames(), extracted)
	return ev.EvaluateAll(profile.Rules, facts), err
}
