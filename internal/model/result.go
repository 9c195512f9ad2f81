package model

// RuleStatus is the verdict of a rule evaluation
type RuleStatus string

const (
	StatusPass RuleStatus = "PASS"
	StatusFail RuleStatus = "FAIL"
	StatusWarn RuleStatus = "WARN" // evaluation error, manual review required
)

// RuleResult is the unified verdict consumed by risk aggregation, produced
// both by the built-in text checks and by profile rule conditions.
type RuleResult struct {
	RuleID         string     `json:"rule_id"`
	Label          string     `json:"label"`
	Category       string     `json:"category,omitempty"`
	Status         RuleStatus `json:"status"`
	Severity       Severity   `json:"severity"`
	Message        string     `json:"message"`
	Citations      []Citation `json:"citations,omitempty"`
	RiskStatement  string     `json:"risk_statement,omitempty"`
	Recommendation string     `json:"recommendation,omitempty"`
	ReasonShort    string     `json:"reason_short,omitempty"`
}

// Failed reports whether the result counts as a failure for risk purposes
func (r RuleResult) Failed() bool {
	return r.Status == StatusFail
}
