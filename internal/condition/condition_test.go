package condition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/model"
)

func facts(t *testing.T, extracted map[string]any, names ...string) FactContext {
	t.Helper()
	ctx, err := NewFactContext(names, extracted)
	require.NoError(t, err)
	return ctx
}

func TestProgram_EvalBool(t *testing.T) {
	ctx := facts(t, map[string]any{
		"amount":        1500,
		"parties":       []any{"Acme Corp", "Beta LLC"},
		"has_signature": true,
		"governing_law": "Delaware",
		"clause":        "Disputes go to binding Arbitration in Wilmington.",
		"fees":          []float64{100, 250.5, 49.5},
		"term_months":   12,
		"notes":         "",
	}, "amount", "parties", "has_signature", "governing_law", "clause", "fees", "term_months", "notes", "missing")

	tests := []struct {
		cond string
		want bool
	}{
		{"amount > 1000", true},
		{"amount >= 1500 and amount <= 1500", true},
		{"1000 < amount < 2000", true},
		{"1000 < amount < 1200", false},
		{"len(parties) >= 2 and has_signature", true},
		{"not has_signature", false},
		{"!has_signature || amount == 1500", true},
		{"governing_law in ['Delaware', 'New York']", true},
		{"governing_law not in [\"Delaware\"]", false},
		{"'arbitration' in lower(clause)", true},
		{"contains(clause, 'Arbitration')", true},
		{"sum(fees) == 400", true},
		{"max(fees) == 250.5 and min(fees) == 49.5", true},
		{"max(1, 7, 3) == 7", true},
		{"round(2.5) == 2 and round(3.5) == 4", true},
		{"round(1.2345, 2) == 1.23", true},
		{"abs(-3) == 3", true},
		{"amount * 2 - 1000 == 2000", true},
		{"amount / 3 == 500", true},
		{"-7 % 3 == 2", true},
		{"(amount + 500) % 1000 == 0", true},
		{"str(amount) == '1500'", true},
		{"int('1,250.75') == 1250", true},
		{"float('$99.5') == 99.5", true},
		{"upper(governing_law) == 'DELAWARE'", true},
		{"term_months == 12", true},
		{"missing == null", true},
		{"missing != None", false},
		{"bool(notes)", false},
		{"notes or 'fallback'", true},
		{"len(parties)", true},
		{"[1, 2] + [3] == [1, 2, 3]", true},
		{"'a' + 'b' == 'ab'", true},
		{"'b' > 'a'", true},
		{"True and not False", true},
		{"1_000 == 1000 and 1e3 == 1000", true},
		{"missing == null or missing > 1", true},
		{"has_signature and (amount > 10 or missing > 1)", true},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			prog, err := Compile(tt.cond)
			require.NoError(t, err)
			got, err := prog.EvalBool(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProgram_EvalErrors(t *testing.T) {
	ctx := facts(t, map[string]any{"amount": 10, "name": "x"}, "amount", "name", "missing")

	tests := []string{
		"missing > 1",
		"missing + 1",
		"missing and true",
		"not missing",
		"unknown_fact == 1",
		"amount > 'x'",
		"amount / 0 == 1",
		"len(amount) == 1",
		"amount in 5",
		"1 in 'abc'",
		"min([]) == 1",
		"int('abc') == 1",
		"missing",
	}

	for _, cond := range tests {
		t.Run(cond, func(t *testing.T) {
			prog, err := Compile(cond)
			require.NoError(t, err)
			_, err = prog.EvalBool(ctx)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrConditionEvaluation))
		})
	}
}

func TestCompile_SyntaxErrors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"amount >",
		"(amount > 1",
		"amount > 1)",
		"amount.value > 1",
		"__import__('os')",
		"exec('x')",
		"amount = 1",
		"'unterminated",
		"len()",
		"lower('a', 'b')",
		"amount > 1 amount",
		"[1, 2",
		"amount @ 2",
	}

	for _, cond := range tests {
		t.Run(cond, func(t *testing.T) {
			_, err := Compile(cond)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrConditionEvaluation))
		})
	}
}

func TestCompile_NestingLimit(t *testing.T) {
	deep := ""
	for i := 0; i < maxNestingDepth+5; i++ {
		deep += "("
	}
	deep += "1"
	for i := 0; i < maxNestingDepth+5; i++ {
		deep += ")"
	}
	_, err := Compile(deep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested too deeply")
}

func TestProgram_Names(t *testing.T) {
	prog := MustCompile("len(parties) >= 2 and amount > max(fees) or 'x' in parties")
	assert.Equal(t, []string{"amount", "fees", "parties"}, prog.Names())
	assert.Equal(t, "len(parties) >= 2 and amount > max(fees) or 'x' in parties", prog.Source())
}

func TestNewFactContext(t *testing.T) {
	ctx, err := NewFactContext(
		[]string{"a", "b", "c", "d"},
		map[string]any{"a": 1.5, "b": map[string]any{"nested": true}, "d": []string{"x"}, "extra": 1},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `fact "b"`)

	assert.Equal(t, []string{"a", "b", "c", "d"}, ctx.Names())
	assert.Equal(t, Number(1.5), ctx["a"])
	assert.True(t, ctx["b"].IsNull())
	assert.True(t, ctx["c"].IsNull())
	assert.Equal(t, List(String("x")), ctx["d"])
	_, ok := ctx["extra"]
	assert.False(t, ok)
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "1500", Number(1500).String())
	assert.Equal(t, "2.5", Number(2.5).String())
	assert.Equal(t, "null", Null().String())
	assert.Equal(t, `["a", 1, true]`, List(String("a"), Number(1), Bool(true)).String())
}

func TestEvaluator_Evaluate(t *testing.T) {
	e := NewEvaluator(nil)
	rule := model.RuleDefinition{
		ID:             "min_amount",
		Label:          "Minimum amount",
		Category:       "financial",
		Severity:       model.SeverityHigh,
		Condition:      "amount > 1000",
		SuccessMessage: "Amount is above the minimum",
		FailureMessage: "Amount is below the minimum",
		RiskStatement:  "Deal is too small",
		Recommendation: "Renegotiate the amount",
	}

	pass := e.Evaluate(rule, facts(t, map[string]any{"amount": 1500}, "amount"))
	assert.Equal(t, model.StatusPass, pass.Status)
	assert.Equal(t, "Amount is above the minimum", pass.Message)
	assert.Equal(t, model.SeverityHigh, pass.Severity)
	assert.Empty(t, pass.RiskStatement)
	assert.Empty(t, pass.Recommendation)

	fail := e.Evaluate(rule, facts(t, map[string]any{"amount": 500}, "amount"))
	assert.Equal(t, model.StatusFail, fail.Status)
	assert.Equal(t, "Amount is below the minimum", fail.Message)
	assert.Equal(t, "Deal is too small", fail.RiskStatement)
	assert.Equal(t, "Renegotiate the amount", fail.Recommendation)

	warn := e.Evaluate(rule, facts(t, nil, "amount"))
	assert.Equal(t, model.StatusWarn, warn.Status)
	assert.Equal(t, model.SeverityMedium, warn.Severity)
	assert.Contains(t, warn.Message, "Rule evaluation error:")
	assert.Contains(t, warn.Message, "null")
	assert.Equal(t, warnRiskStatement, warn.RiskStatement)
	assert.Equal(t, warnRecommendation, warn.Recommendation)
	assert.False(t, warn.Failed())
}

func TestEvaluator_EvaluateAllNoEarlyExit(t *testing.T) {
	e := NewEvaluator(nil)
	rules := []model.RuleDefinition{
		{ID: "broken", Condition: "amount >", Severity: model.SeverityLow},
		{ID: "fails", Condition: "len(parties) >= 3", Severity: model.SeverityLow},
		{ID: "passes", Condition: "len(parties) >= 2 and has_signature", Severity: model.SeverityLow},
	}
	ctx := facts(t, map[string]any{
		"parties":       []any{"A", "B"},
		"has_signature": true,
	}, "amount", "parties", "has_signature")

	results := e.EvaluateAll(rules, ctx)
	require.Len(t, results, 3)
	assert.Equal(t, model.StatusWarn, results[0].Status)
	assert.Equal(t, model.StatusFail, results[1].Status)
	assert.Equal(t, model.StatusPass, results[2].Status)
}

func TestEvaluator_CachesPrograms(t *testing.T) {
	e := NewEvaluator(nil)
	first, err := e.Compile("amount > 1")
	require.NoError(t, err)
	second, err := e.Compile("amount > 1")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = e.Compile("amount >")
	require.Error(t, err)
	assert.Equal(t, 1, e.programs.ItemCount())
}
