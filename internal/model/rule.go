package model

// RuleDefinition is one condition-based rule from a rule profile
type RuleDefinition struct {
	ID             string   `json:"id" yaml:"id"`
	Label          string   `json:"label" yaml:"label"`
	Category       string   `json:"category,omitempty" yaml:"category,omitempty"`
	Severity       Severity `json:"severity" yaml:"severity"`
	Condition      string   `json:"condition" yaml:"condition"`
	SuccessMessage string   `json:"success_message,omitempty" yaml:"success_message,omitempty"`
	FailureMessage string   `json:"failure_message,omitempty" yaml:"failure_message,omitempty"`
	RiskStatement  string   `json:"risk_statement,omitempty" yaml:"risk_statement,omitempty"`
	Recommendation string   `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

// FactField declares a named value the extraction collaborator may supply
type FactField struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"` // string, number, bool, list
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// WeightedTerm is a classifier keyword with its score per match
type WeightedTerm struct {
	Term   string  `json:"term" yaml:"term"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// WeightedPattern is a classifier section-header regex with its score per match
type WeightedPattern struct {
	Pattern string  `json:"pattern" yaml:"pattern"`
	Weight  float64 `json:"weight" yaml:"weight"`
}

// Profile is a rule pack: classifier metadata, legacy policy, fact schema and rules.
// Profiles are read-only once loaded and may be shared between goroutines.
type Profile struct {
	ID              string            `json:"id" yaml:"id"`
	DocTypeNames    []string          `json:"doc_type_names" yaml:"doc_type_names"`
	Description     string            `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords        []WeightedTerm    `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	SectionPatterns []WeightedPattern `json:"section_patterns,omitempty" yaml:"section_patterns,omitempty"`
	Policy          Policy            `json:"policy" yaml:"policy"`
	FactSchema      []FactField       `json:"fact_schema,omitempty" yaml:"fact_schema,omitempty"`
	Rules           []RuleDefinition  `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// PrimaryDocType returns the first declared document type name
func (p *Profile) PrimaryDocType() string {
	if len(p.DocTypeNames) == 0 {
		return "Unknown"
	}
	return p.DocTypeNames[0]
}

// FactNames returns the declared fact names in schema order
func (p *Profile) FactNames() []string {
	names := make([]string, 0, len(p.FactSchema))
	for _, f := range p.FactSchema {
		names = append(names, f.Name)
	}
	return names
}

// Policy configures the four built-in text checks
type Policy struct {
	Jurisdiction JurisdictionPolicy `json:"jurisdiction" yaml:"jurisdiction"`
	LiabilityCap LiabilityCapPolicy `json:"liability_cap" yaml:"liability_cap"`
	Contract     ContractPolicy     `json:"contract" yaml:"contract"`
	Fraud        FraudPolicy        `json:"fraud" yaml:"fraud"`
}

type JurisdictionPolicy struct {
	AllowedCountries []string `json:"allowed_countries" yaml:"allowed_countries"`
}

// LiabilityCapPolicy: if both limits are set, both must hold
type LiabilityCapPolicy struct {
	MaxCapAmount     *float64 `json:"max_cap_amount,omitempty" yaml:"max_cap_amount,omitempty"`
	MaxCapMultiplier *float64 `json:"max_cap_multiplier,omitempty" yaml:"max_cap_multiplier,omitempty"` // 1.0 = 1x contract value
}

type ContractPolicy struct {
	MaxContractValue *float64 `json:"max_contract_value,omitempty" yaml:"max_contract_value,omitempty"`
}

type FraudPolicy struct {
	RequireFraudClause           bool `json:"require_fraud_clause" yaml:"require_fraud_clause"`
	RequireLiabilityOnOtherParty bool `json:"require_liability_on_other_party" yaml:"require_liability_on_other_party"`
}

// DefaultPolicy returns the baseline policy used when a profile omits one
func DefaultPolicy() Policy {
	multiplier := 1.0
	return Policy{
		Jurisdiction: JurisdictionPolicy{
			AllowedCountries: []string{
				"United States", "US", "USA",
				"Canada",
				"European Union", "EU",
				"Australia", "AUS",
			},
		},
		LiabilityCap: LiabilityCapPolicy{MaxCapMultiplier: &multiplier},
		Fraud: FraudPolicy{
			RequireFraudClause:           true,
			RequireLiabilityOnOtherParty: true,
		},
	}
}

// Float returns a pointer to v, for building policies in code
func Float(v float64) *float64 {
	return &v
}
