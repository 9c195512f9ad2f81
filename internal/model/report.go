package model

import "time"

// Report is the complete analysis of one document
type Report struct {
	ID             string         `json:"id"`
	DocumentName   string         `json:"document_name"`
	PackID         string         `json:"pack_id"`
	AnalyzedAt     time.Time      `json:"analyzed_at"`
	Classification Classification `json:"classification"`

	Findings    []Finding      `json:"findings"`     // built-in text checks, normalized and located
	RuleResults []RuleResult   `json:"rule_results"` // profile rule conditions
	Risk        RiskAssessment `json:"risk"`

	PassedAll bool `json:"passed_all"`
}

// Classification records how the rule profile was chosen
type Classification struct {
	Selected   string             `json:"selected"`
	Candidates []DocTypeCandidate `json:"candidates"`
	Reason     string             `json:"reason"`
	Confidence float64            `json:"confidence"`
}

// DocTypeCandidate is one scored rule profile
type DocTypeCandidate struct {
	PackID  string  `json:"pack_id"`
	DocType string  `json:"doc_type"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
}

// RiskAssessment is derived from rule results on every report
type RiskAssessment struct {
	OverallRiskLevel RiskLevel `json:"overall_risk_level"`
	TopRisks         []string  `json:"top_risks"`
	Recommendations  []string  `json:"recommendations"`
}
