// Package normalize reconciles built-in check findings with the text
// around their citations. Findings are never mutated: every change
// produces a rewritten copy with a note appended to its details.
package normalize

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ppiankov/clausewise/internal/guard"
	"github.com/ppiankov/clausewise/internal/model"
)

const (
	NoteMonetaryGuard    = "[auto-guard: numeric citations lacked currency context or referenced shares/units]"
	NoteEquityContext    = "Ignored numeric amounts because context indicates equity issuance (shares/units), not monetary consideration."
	NoteNoMonetaryAmount = "No credible monetary context detected near citations; ignoring share/unit counts for contract value."
	NoteLimitNotEnforced = "(note: no max_contract_value configured; not enforced)"
)

const (
	contractValueRule = "contract_value_within_limit"
	jurisdictionRule  = "jurisdiction_present_and_allowed"
)

// Normalizer applies the context guards. It is safe for concurrent use.
type Normalizer struct {
	guards *guard.Guards
	logger *slog.Logger
}

// New creates a normalizer. A nil logger uses slog.Default().
func New(g *guard.Guards, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{guards: g, logger: logger}
}

// Normalize runs the monetary guard and then the rule-context pass.
func (n *Normalizer) Normalize(text string, policy model.Policy, findings []model.Finding) []model.Finding {
	return n.NormalizeWithRuleContext(text, policy, n.GuardMonetaryFalsePositives(text, findings))
}

// GuardMonetaryFalsePositives passes failed monetary findings whose
// citations are numeric but never sit in monetary context, such as share
// counts. Findings for non-monetary rules, findings without citations and
// findings whose windows hold no digits are returned unchanged.
func (n *Normalizer) GuardMonetaryFalsePositives(text string, findings []model.Finding) []model.Finding {
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Passed || len(f.Citations) == 0 || !n.guards.IsMonetaryRule(f.RuleID) {
			out = append(out, f)
			continue
		}

		windows := guard.CitationWindows(text, f.Citations, n.guards.Padding())
		numeric, monetary := false, false
		for _, w := range windows {
			sig, err := n.guards.Classify(w)
			if errors.Is(err, model.ErrGuardInconclusive) {
				n.logger.Debug("guard inconclusive", "rule", f.RuleID, "window", w)
			}
			numeric = numeric || sig != guard.SignalNone
			monetary = monetary || n.guards.LooksMonetary(w)
		}
		if !numeric || monetary {
			out = append(out, f)
			continue
		}

		n.logger.Debug("monetary guard passed finding", "rule", f.RuleID)
		out = append(out, f.Rewrite(true, NoteMonetaryGuard, model.Tag(model.TagGuard, "monetary")))
	}
	return out
}

// NormalizeWithRuleContext makes contract-value and jurisdiction findings
// consistent with their citations and details.
func (n *Normalizer) NormalizeWithRuleContext(text string, policy model.Policy, findings []model.Finding) []model.Finding {
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		id := strings.ToLower(f.RuleID)
		switch {
		case strings.Contains(id, contractValueRule):
			f = n.contractValue(text, policy.Contract.MaxContractValue, f)
		case strings.Contains(id, jurisdictionRule):
			if f.Passed && strings.Contains(strings.ToLower(f.Details), "not in allowed list") {
				f = f.Rewrite(false, "", model.Tag(model.TagGuard, "jurisdiction"))
			}
		}
		out = append(out, f)
	}
	return out
}

func (n *Normalizer) contractValue(text string, limit *float64, f model.Finding) model.Finding {
	windows := guard.CitationWindows(text, f.Citations, n.guards.RulePadding())
	if len(windows) == 0 {
		return f
	}

	allEquity, anyMoney := true, false
	for _, w := range windows {
		money := n.guards.LooksMonetary(w)
		if !n.guards.HasUnitSignal(w) || money {
			allEquity = false
		}
		anyMoney = anyMoney || money
	}
	claimsExceed := strings.Contains(strings.ToLower(f.Details), "exceed")

	switch {
	case allEquity:
		n.logger.Debug("contract value citations are equity counts", "rule", f.RuleID)
		return f.Rewrite(true, NoteEquityContext, model.Tag(model.TagGuard, "equity_context"))
	case limit != nil && anyMoney:
		if f.Passed == claimsExceed {
			return f.Rewrite(!claimsExceed, "", model.Tag(model.TagGuard, "exceeds_wording"))
		}
		return f
	case limit != nil:
		return f.Rewrite(true, NoteNoMonetaryAmount, model.Tag(model.TagGuard, "no_monetary_context"))
	case claimsExceed:
		return f.Rewrite(f.Passed, NoteLimitNotEnforced)
	}
	return f
}
