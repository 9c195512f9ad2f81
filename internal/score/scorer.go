package score

import (
	"sort"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
)

const (
	// DefaultMaxItems caps top risks and recommendations.
	DefaultMaxItems = 5

	GenericRecommendation = "Review the failed checks above and consider renegotiating or seeking legal review."
)

// Scorer derives the risk assessment of a report from its rule results.
type Scorer struct {
	maxItems int
}

// NewScorer creates a scorer with the default item cap
func NewScorer() *Scorer {
	return &Scorer{maxItems: DefaultMaxItems}
}

// CalculateRiskLevel maps failures to a level:
//
//	any Critical failure       -> Critical
//	any High failure           -> High
//	1-2 lesser failures        -> Medium
//	3 or more lesser failures  -> High
//	no failures                -> Low
//
// WARN results are not failures.
func (s *Scorer) CalculateRiskLevel(results []model.RuleResult) model.RiskLevel {
	failed := failures(results)
	if len(failed) == 0 {
		return model.RiskLow
	}

	worst := 0
	for _, r := range failed {
		worst = max(worst, r.Severity.Rank())
	}
	switch {
	case worst >= model.SeverityCritical.Rank():
		return model.RiskCritical
	case worst >= model.SeverityHigh.Rank():
		return model.RiskHigh
	case len(failed) <= 2:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// BuildRiskAssessment collects risk statements and recommendations from
// failed results, most severe first, deduplicated and capped.
func (s *Scorer) BuildRiskAssessment(results []model.RuleResult) model.RiskAssessment {
	failed := RankResults(failures(results))

	var risks, recs []string
	for _, r := range failed {
		if r.RiskStatement != "" {
			risks = append(risks, r.RiskStatement)
		} else {
			reason := r.ReasonShort
			if reason == "" {
				reason = r.Message
			}
			risks = append(risks, r.Label+": "+strings.TrimRight(reason, "."))
		}
		if r.Recommendation != "" {
			recs = append(recs, r.Recommendation)
		}
	}

	risks = dedupe(risks, s.maxItems)
	recs = dedupe(recs, s.maxItems)
	if len(recs) == 0 && len(failed) > 0 {
		recs = []string{GenericRecommendation}
	}

	return model.RiskAssessment{
		OverallRiskLevel: s.CalculateRiskLevel(results),
		TopRisks:         risks,
		Recommendations:  recs,
	}
}

// RankResults orders failures before warnings before passes, then by
// severity, keeping input order among equals. The input is not modified.
func RankResults(results []model.RuleResult) []model.RuleResult {
	out := append([]model.RuleResult(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := statusRank(out[i].Status), statusRank(out[j].Status)
		if si != sj {
			return si > sj
		}
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})
	return out
}

// RankFindings orders failed findings before passed ones, then by severity.
func RankFindings(findings []model.Finding) []model.Finding {
	out := append([]model.Finding(nil), findings...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Passed != out[j].Passed {
			return !out[i].Passed
		}
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})
	return out
}

func statusRank(s model.RuleStatus) int {
	switch s {
	case model.StatusFail:
		return 2
	case model.StatusWarn:
		return 1
	default:
		return 0
	}
}

func failures(results []model.RuleResult) []model.RuleResult {
	var failed []model.RuleResult
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

func dedupe(items []string, limit int) []string {
	seen := make(map[string]bool, len(items))
	out := []string{}
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
