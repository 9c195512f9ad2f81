// Package rules runs the built-in text checks and evaluates profile rules.
//
// The four built-in checks look for a liability cap, a contract value
// limit, a fraud clause and an allowed governing law. They work on regex
// facts from the document text and produce Findings; profile rules work
// on extracted facts through the condition evaluator and produce
// RuleResults. Both end up as RuleResults for risk aggregation.
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ppiankov/clausewise/internal/extract"
	"github.com/ppiankov/clausewise/internal/model"
)

const (
	LiabilityCapID  = "liability_cap_present_and_within_bounds"
	ContractValueID = "contract_value_within_limit"
	FraudClauseID   = "fraud_clause_present_and_assigned"
	JurisdictionID  = "jurisdiction_present_and_allowed"
)

// Check describes a built-in check.
type Check struct {
	ID       string
	Label    string
	Severity model.Severity
}

// Checks lists the built-in checks in evaluation order.
var Checks = []Check{
	{ID: LiabilityCapID, Label: "Liability Cap Present And Within Bounds", Severity: model.SeverityHigh},
	{ID: ContractValueID, Label: "Contract Value Within Limit", Severity: model.SeverityMedium},
	{ID: FraudClauseID, Label: "Fraud Clause Present And Assigned", Severity: model.SeverityHigh},
	{ID: JurisdictionID, Label: "Jurisdiction Present And Allowed", Severity: model.SeverityHigh},
}

// LookupCheck returns the built-in check with the given id.
func LookupCheck(id string) (Check, bool) {
	for _, c := range Checks {
		if c.ID == id {
			return c, true
		}
	}
	return Check{}, false
}

// Checker runs the built-in checks under one policy.
type Checker struct {
	policy model.Policy
	cites  model.CitationConfig
}

// NewChecker creates a checker.
func NewChecker(policy model.Policy, cites model.CitationConfig) *Checker {
	return &Checker{policy: policy, cites: cites}
}

// Run evaluates all four checks against text without stopping at failures.
// Signature-page noise is masked first; offsets still refer to text.
// The second return value is the largest amount in the document, used as
// the inferred contract value.
func (c *Checker) Run(text string) ([]model.Finding, *float64) {
	clean := extract.MaskNoise(text)

	var contractValue *float64
	if m, ok := extract.MaxMoney(clean); ok {
		contractValue = &m.Amount
	}

	findings := []model.Finding{
		c.liabilityCap(text, clean, contractValue),
		c.contractValue(text, clean),
		c.fraudClause(text, clean),
		c.jurisdiction(text, clean),
	}
	return findings, contractValue
}

func (c *Checker) cite(text string, start, end int) model.Citation {
	return extract.Cite(text, start, end, c.cites.QuotePadding, c.cites.MaxQuoteLength)
}

func (c *Checker) liabilityCap(text, clean string, contractValue *float64) model.Finding {
	sec, ok := extract.LiabilitySection(clean)
	if !ok {
		return finding(LiabilityCapID, false,
			"No clear 'Limitation of Liability' section found.",
			"No limitation of liability section", nil)
	}

	section := clean[sec.Start:sec.End]
	citations := []model.Citation{c.cite(text, sec.HeadingStart, sec.HeadingEnd)}
	limits := c.policy.LiabilityCap

	capOK := true
	var notes []string
	months := extract.HasMonthsOfFees(section)
	if months {
		if limits.MaxCapMultiplier != nil && *limits.MaxCapMultiplier < 1.0 {
			capOK = false
			notes = append(notes, "Found '12 months of fees' (~1x), exceeds configured multiplier.")
		} else {
			notes = append(notes, "Found '12 months of fees' (~1x multiplier).")
		}
	}

	amounts := extract.ParseMoney(section)
	if len(amounts) > 0 {
		best := amounts[0]
		for _, m := range amounts[1:] {
			if m.Amount > best.Amount {
				best = m
			}
		}
		citations = append(citations, c.cite(text, sec.Start+best.Start, sec.Start+best.End))
		notes = append(notes, fmt.Sprintf("Found explicit monetary cap candidate: %s.", money(best.Currency, best.Amount)))
		if limits.MaxCapAmount != nil && best.Amount > *limits.MaxCapAmount {
			capOK = false
			notes = append(notes, fmt.Sprintf("Cap %s exceeds allowed %s.", money("", best.Amount), money("", *limits.MaxCapAmount)))
		}
		if contractValue != nil && limits.MaxCapMultiplier != nil && best.Amount > (*limits.MaxCapMultiplier)*(*contractValue) {
			capOK = false
			notes = append(notes, fmt.Sprintf("Cap %s exceeds %s× inferred contract value %s.",
				money("", best.Amount), strconv.FormatFloat(*limits.MaxCapMultiplier, 'f', -1, 64), money("", *contractValue)))
		}
	}

	if len(amounts) == 0 && !months {
		capOK = false
		notes = append(notes, "No clear cap indicator ('12 months of fees' or explicit monetary cap) detected.")
	}

	short := "Liability cap within configured bounds"
	switch {
	case len(amounts) == 0 && !months:
		short = "No liability cap indicator"
	case !capOK:
		short = "Liability cap exceeds configured bounds"
	}
	return finding(LiabilityCapID, capOK, strings.Join(notes, "; "), short, citations)
}

func (c *Checker) contractValue(text, clean string) model.Finding {
	limit := c.policy.Contract.MaxContractValue
	if limit == nil {
		return finding(ContractValueID, true,
			"No max contract value configured; skipping.",
			"No contract value limit configured", nil)
	}

	m, ok := extract.MaxMoney(clean)
	if !ok {
		return finding(ContractValueID, true,
			"Could not identify a contract value; no obvious monetary amounts found.",
			"No monetary amounts found", nil)
	}

	passed := m.Amount <= *limit
	verdict, short := "is within", "Contract value within limit"
	if !passed {
		verdict, short = "exceeds", "Contract value exceeds limit"
	}
	details := fmt.Sprintf("Largest detected amount %s %s configured limit %s.",
		money(m.Currency, m.Amount), verdict, money("", *limit))
	return finding(ContractValueID, passed, details, short, []model.Citation{c.cite(text, m.Start, m.End)})
}

func (c *Checker) fraudClause(text, clean string) model.Finding {
	policy := c.policy.Fraud
	if !policy.RequireFraudClause {
		return finding(FraudClauseID, true,
			"Fraud clause not required by config.",
			"Fraud clause not required", nil)
	}

	mentions := extract.FraudMentions(clean)
	if len(mentions) == 0 {
		return finding(FraudClauseID, false, "No 'fraud' mention found.", "No fraud clause", nil)
	}

	citations := make([]model.Citation, 0, len(mentions))
	assigned := 0
	for _, m := range mentions {
		citations = append(citations, extract.Cite(text, m.Start, m.End, extract.FraudNeighbourhood, 0))
		if m.AssignedToOther {
			assigned++
		}
	}
	allAssigned := !policy.RequireLiabilityOnOtherParty || assigned == len(mentions)

	var details string
	if len(mentions) == 1 {
		details = "'fraud' found (1 instance)."
		if policy.RequireLiabilityOnOtherParty {
			if allAssigned {
				details += " Liability appears assigned to the other party."
			} else {
				details += " Could not confirm liability assigned to the 'other party' near the fraud reference."
			}
		}
	} else {
		details = fmt.Sprintf("'fraud' found (%d instances).", len(mentions))
		if policy.RequireLiabilityOnOtherParty {
			if allAssigned {
				details += " All instances appear to have liability assigned to the other party."
			} else {
				details += fmt.Sprintf(" %d/%d instances have liability properly assigned to the other party.", assigned, len(mentions))
			}
		}
	}

	short := "Fraud clause present"
	switch {
	case !allAssigned:
		short = "Fraud liability not assigned to other party"
	case policy.RequireLiabilityOnOtherParty:
		short = "Fraud liability assigned to other party"
	}
	return finding(FraudClauseID, allAssigned, details, short, citations)
}

func (c *Checker) jurisdiction(text, clean string) model.Finding {
	found := extract.Jurisdictions(clean)
	if len(found) == 0 {
		return finding(JurisdictionID, false,
			"No clear 'governing law / jurisdiction' clause detected.",
			"No governing law clause", nil)
	}

	allowed := c.policy.Jurisdiction.AllowedCountries
	allAllowed := true
	names := make([]string, 0, len(found))
	citations := make([]model.Citation, 0, len(found))
	for _, j := range found {
		names = append(names, j.Name)
		citations = append(citations, c.cite(text, j.Start, j.End))
		if !extract.Allowed(j.Name, allowed) {
			allAllowed = false
		}
	}

	var details, short string
	if len(found) == 1 {
		verdict := "Allowed"
		short = fmt.Sprintf("Governing law %s is allowed", names[0])
		if !allAllowed {
			verdict = "Not in allowed list."
			short = fmt.Sprintf("Governing law %s not allowed", names[0])
		}
		details = fmt.Sprintf("Governing law/jurisdiction detected as %q. %s", names[0], verdict)
	} else {
		quoted := make([]string, len(names))
		for i, n := range names {
			quoted[i] = strconv.Quote(n)
		}
		verdict := "All allowed"
		short = "All governing law clauses allowed"
		if !allAllowed {
			verdict = "One or more not in allowed list."
			short = "Governing law not allowed"
		}
		details = fmt.Sprintf("Multiple jurisdiction clauses found: %s. %s", strings.Join(quoted, ", "), verdict)
	}
	return finding(JurisdictionID, allAllowed, details, short, citations)
}

func finding(id string, passed bool, details, short string, citations []model.Citation) model.Finding {
	check, _ := LookupCheck(id)
	if citations == nil {
		citations = []model.Citation{}
	}
	return model.Finding{
		RuleID:    id,
		Passed:    passed,
		Severity:  check.Severity,
		Details:   details,
		Citations: citations,
		Tags: []string{
			model.Tag(model.TagReasonShort, short),
			model.Tag(model.TagReasonDetailed, details),
		},
	}
}

// money formats an amount with thousands separators and two decimals.
func money(currency string, amount float64) string {
	return currency + humanize.FormatFloat("#,###.##", amount)
}
