package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/classify"
	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/profile"
	"github.com/ppiankov/clausewise/internal/util"
)

const msaText = `MASTER SERVICES AGREEMENT
1. Fees. Customer shall pay Vendor $120,000 per year.
2. Limitation of Liability. Each party's liability is limited to twelve (12) months of fees.
3. Fraud. Each party retains sole responsibility for its own fraud.
4. Governing Law. This Agreement is governed by the laws of Canada.`

func newAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	cfg := model.DefaultConfig()
	a, err := New(cfg, profile.Builtin(), opts...)
	require.NoError(t, err)
	return a
}

func textDoc(text string) *Document {
	return &Document{Name: "contract.txt", Source: "contract.txt", Format: FormatText, Text: text, Size: int64(len(text))}
}

func TestAnalyzer_CompliantMSA(t *testing.T) {
	a := newAnalyzer(t)
	facts := map[string]any{
		"contract_value":     120000,
		"liability_cap":      100000,
		"payment_terms_days": 45,
		"auto_renewal":       false,
	}

	report, err := a.Analyze(context.Background(), textDoc(msaText), facts)
	require.NoError(t, err)

	assert.Equal(t, "msa", report.PackID)
	assert.Equal(t, "msa", report.Classification.Selected)
	assert.True(t, strings.HasPrefix(report.Classification.Reason, "heuristic_confident"), report.Classification.Reason)
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.AnalyzedAt.IsZero())

	require.Len(t, report.Findings, 4)
	for _, f := range report.Findings {
		assert.True(t, f.Passed, "%s: %s", f.RuleID, f.Details)
		for _, c := range f.Citations {
			require.NotNil(t, c.Page, f.RuleID)
			assert.Equal(t, 1, *c.Page)
			require.NotNil(t, c.LineStart)
			assert.Equal(t, 1.0, c.Confidence)
			assert.True(t, c.InBounds(len(msaText)))
		}
	}

	require.Len(t, report.RuleResults, 3)
	for _, r := range report.RuleResults {
		assert.Equal(t, model.StatusPass, r.Status, "%s: %s", r.RuleID, r.Message)
	}

	assert.True(t, report.PassedAll)
	assert.Equal(t, model.RiskLow, report.Risk.OverallRiskLevel)
	assert.Empty(t, report.Risk.TopRisks)
}

func TestAnalyzer_RuleFailuresDriveRisk(t *testing.T) {
	a := newAnalyzer(t)
	facts := map[string]any{
		"contract_value":          json.Number("120000"),
		"liability_cap":           json.Number("100000"),
		"payment_terms_days":      json.Number("90"),
		"auto_renewal":            true,
		"termination_notice_days": 120,
	}

	report, err := a.Analyze(context.Background(), textDoc(msaText), facts)
	require.NoError(t, err)

	require.NotEmpty(t, report.RuleResults)
	first := report.RuleResults[0]
	assert.Equal(t, model.StatusFail, first.Status)
	assert.Equal(t, "payment_terms_reasonable", first.RuleID, "medium failure ranks above low")

	assert.False(t, report.PassedAll)
	assert.Equal(t, model.RiskMedium, report.Risk.OverallRiskLevel)
	assert.Contains(t, report.Risk.TopRisks, "Long payment terms delay cash flow.")
	assert.Contains(t, report.Risk.Recommendations, "Negotiate net 30 or net 60 payment terms.")
}

func TestAnalyzer_MissingFactsYieldWarnOrFail(t *testing.T) {
	a := newAnalyzer(t)

	report, err := a.Analyze(context.Background(), textDoc(msaText), nil)
	require.NoError(t, err)

	statuses := map[string]model.RuleStatus{}
	for _, r := range report.RuleResults {
		statuses[r.RuleID] = r.Status
	}
	assert.Equal(t, model.StatusPass, statuses["payment_terms_reasonable"], "null payment terms are allowed")
	assert.Equal(t, model.StatusFail, statuses["liability_cap_not_above_contract_value"])
	assert.Equal(t, model.StatusPass, statuses["auto_renewal_with_notice"])
	assert.Equal(t, model.RiskHigh, report.Risk.OverallRiskLevel)
}

func TestAnalyzer_FailedLegacyChecks(t *testing.T) {
	a := newAnalyzer(t)
	text := "MASTER SERVICES AGREEMENT\nCustomer pays $50,000.\nThis Agreement is governed by the laws of India."

	report, err := a.Analyze(context.Background(), textDoc(text), nil)
	require.NoError(t, err)

	require.Len(t, report.Findings, 4)
	assert.False(t, report.Findings[0].Passed, "failed findings rank first")

	var jurisdiction *model.Finding
	for i := range report.Findings {
		if report.Findings[i].RuleID == "jurisdiction_present_and_allowed" {
			jurisdiction = &report.Findings[i]
		}
	}
	require.NotNil(t, jurisdiction)
	assert.False(t, jurisdiction.Passed)
	require.NotEmpty(t, jurisdiction.Citations)
	require.NotNil(t, jurisdiction.Citations[0].LineStart)
	assert.Equal(t, 3, *jurisdiction.Citations[0].LineStart)
	assert.Equal(t, model.RiskHigh, report.Risk.OverallRiskLevel)
}

func TestAnalyzer_FallbackClassification(t *testing.T) {
	var asked bool
	fb := classify.FallbackFunc(func(ctx context.Context, excerpt string, profiles []classify.ProfileSummary) (*classify.FallbackResult, error) {
		asked = true
		return &classify.FallbackResult{PackID: "nda", Confidence: 0.9, Reasoning: "Confidentiality.", Mode: "chat"}, nil
	})
	a := newAnalyzer(t, WithFallback(fb))

	report, err := a.Analyze(context.Background(), textDoc("The parties agree as follows."), nil)
	require.NoError(t, err)

	assert.True(t, asked)
	assert.Equal(t, "nda", report.PackID)
	assert.True(t, strings.HasPrefix(report.Classification.Reason, "llm_fallback_triggered"), report.Classification.Reason)
}

func TestAnalyzer_AnalyzeAs(t *testing.T) {
	a := newAnalyzer(t)

	report, err := a.AnalyzeAs(context.Background(), textDoc(msaText), map[string]any{"confidentiality_years": 3}, "nda")
	require.NoError(t, err)
	assert.Equal(t, "nda", report.PackID)
	assert.Equal(t, "profile_forced", report.Classification.Reason)

	_, err = a.AnalyzeAs(context.Background(), textDoc(msaText), nil, "lease")
	assert.ErrorContains(t, err, `unknown profile "lease"`)
}

func TestAnalyzer_EmptyStoreUsesDefault(t *testing.T) {
	store, err := profile.NewMemoryStore()
	require.NoError(t, err)
	a, err := New(model.DefaultConfig(), store)
	require.NoError(t, err)

	report, err := a.Analyze(context.Background(), textDoc(msaText), nil)
	require.NoError(t, err)
	assert.Equal(t, profile.DefaultID, report.PackID)
	assert.Equal(t, classify.ReasonNoProfiles, report.Classification.Reason)
}

func TestAnalyzer_AnalyzeFileWithSidecarFacts(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "msa.txt")
	require.NoError(t, os.WriteFile(doc, []byte(msaText), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "msa.facts.json"),
		[]byte(`{"contract_value": 120000, "liability_cap": 100000, "payment_terms_days": 30}`), 0o644))

	report, err := newAnalyzer(t).AnalyzeFile(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "msa.txt", report.DocumentName)
	assert.True(t, report.PassedAll)

	_, err = newAnalyzer(t).AnalyzeFile(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestAnalyzer_DocumentsDoNotShareState(t *testing.T) {
	a := newAnalyzer(t)
	ctx := context.Background()

	first, err := a.Analyze(ctx, textDoc(msaText), map[string]any{"payment_terms_days": 90})
	require.NoError(t, err)
	second, err := a.Analyze(ctx, textDoc(msaText), map[string]any{"payment_terms_days": 10})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	for _, r := range second.RuleResults {
		if r.RuleID == "payment_terms_reasonable" {
			assert.Equal(t, model.StatusPass, r.Status)
		}
	}
}

func TestSaveReportAndSummary(t *testing.T) {
	report, err := newAnalyzer(t).Analyze(context.Background(), textDoc(msaText), map[string]any{"payment_terms_days": 90})
	require.NoError(t, err)

	path, err := SaveReport(report, t.TempDir(), true)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("contract.%s.json", report.ID[:8]), filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded model.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report.ID, decoded.ID)
	assert.Equal(t, report.Risk, decoded.Risk)

	var buf bytes.Buffer
	PrintSummary(&buf, report)
	out := buf.String()
	assert.Contains(t, out, "Document:  contract.txt")
	assert.Contains(t, out, "Profile:   msa")
	assert.Contains(t, out, "Checks:    4/4 passed")
	assert.Contains(t, out, "Top risks:")

	buf.Reset()
	PrintDetails(&buf, report)
	out = buf.String()
	assert.Contains(t, out, "✓ jurisdiction_present_and_allowed [High]")
	assert.Contains(t, out, "FAIL payment_terms_reasonable [Medium]")
	assert.Contains(t, out, "p.1 l.")
}

func TestLoader_Files(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(txt, []byte("page one\r\n\fpage two"), 0o644))
	doc, err := LoadDocument(txt)
	require.NoError(t, err)
	assert.Equal(t, FormatText, doc.Format)
	assert.Equal(t, "page one\n\fpage two", doc.Text)
	assert.Equal(t, "a.txt", doc.Name)

	page := filepath.Join(dir, "b.HTML")
	require.NoError(t, os.WriteFile(page, []byte(`<html><body><p>Governing Law.</p><script>x()</script><p>Canada</p></body></html>`), 0o644))
	doc, err = LoadDocument(page)
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, doc.Format)
	assert.Contains(t, doc.Text, "Governing Law.")
	assert.Contains(t, doc.Text, "Canada")
	assert.NotContains(t, doc.Text, "x()")

	_, err = LoadDocument(filepath.Join(dir, "c.pdf"))
	assert.ErrorContains(t, err, "unsupported document type")

	big := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(big, bytes.Repeat([]byte("a"), 100), 0o644))
	_, err = NewLoader(0, "", 10, util.ProxyConfig{}).Load(context.Background(), big)
	assert.ErrorContains(t, err, "larger than 10 bytes")
}

func TestLoader_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contracts/msa":
			assert.Equal(t, "clausewise-test", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<p>MASTER SERVICES AGREEMENT</p>"))
		case "/file.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	l := NewLoader(0, "clausewise-test", 0, util.ProxyConfig{})

	doc, err := l.Load(context.Background(), server.URL+"/contracts/msa")
	require.NoError(t, err)
	assert.Equal(t, "msa", doc.Name)
	assert.Equal(t, FormatHTML, doc.Format)
	assert.Contains(t, doc.Text, "MASTER SERVICES AGREEMENT")

	_, err = l.Load(context.Background(), server.URL+"/file.pdf")
	assert.ErrorContains(t, err, "unsupported content type")

	_, err = l.Load(context.Background(), server.URL+"/missing")
	assert.ErrorContains(t, err, "unexpected status")
}

func TestLoadFacts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"contract_value": 1234567.89, "mutual": true, "parties": ["A", "B"]}`), 0o644))

	facts, err := LoadFacts(path)
	require.NoError(t, err)
	assert.Equal(t, json.Number("1234567.89"), facts["contract_value"])
	assert.Equal(t, true, facts["mutual"])

	require.NoError(t, os.WriteFile(path, []byte(`[1, 2]`), 0o644))
	_, err = LoadFacts(path)
	assert.Error(t, err)

	facts, err = LoadSidecarFacts(filepath.Join(dir, "nothing.txt"))
	require.NoError(t, err)
	assert.Nil(t, facts)

	assert.Equal(t, filepath.Join("x", "msa.facts.json"), FactsPathFor(filepath.Join("x", "msa.html")))
}
