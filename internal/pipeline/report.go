package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
)

// WriteJSON encodes the report
func WriteJSON(w io.Writer, report *model.Report, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// SaveReport writes the report into dir as <document>.<id prefix>.json and
// returns the path
func SaveReport(report *model.Report, dir string, pretty bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, ReportFileName(report))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := WriteJSON(f, report, pretty); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// ReportFileName derives a file name from the document name and report id
func ReportFileName(report *model.Report) string {
	base := strings.TrimSuffix(report.DocumentName, filepath.Ext(report.DocumentName))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, base)
	if base == "" {
		base = "document"
	}
	id := report.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return base + "." + id + ".json"
}

// PrintSummary writes a short human-readable summary
func PrintSummary(w io.Writer, report *model.Report) {
	passedChecks := 0
	for _, f := range report.Findings {
		if f.Passed {
			passedChecks++
		}
	}
	var passedRules, review int
	for _, r := range report.RuleResults {
		switch r.Status {
		case model.StatusPass:
			passedRules++
		case model.StatusWarn:
			review++
		}
	}

	fmt.Fprintf(w, "Document:  %s\n", report.DocumentName)
	fmt.Fprintf(w, "Profile:   %s (%s)\n", report.PackID, report.Classification.Reason)
	fmt.Fprintf(w, "Risk:      %s\n", report.Risk.OverallRiskLevel)
	fmt.Fprintf(w, "Checks:    %d/%d passed\n", passedChecks, len(report.Findings))
	fmt.Fprintf(w, "Rules:     %d/%d passed", passedRules, len(report.RuleResults))
	if review > 0 {
		fmt.Fprintf(w, ", %d need manual review", review)
	}
	fmt.Fprintln(w)

	if len(report.Risk.TopRisks) > 0 {
		fmt.Fprintln(w, "Top risks:")
		for _, r := range report.Risk.TopRisks {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
	if len(report.Risk.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, r := range report.Risk.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}

// PrintDetails lists every check and rule with its citations
func PrintDetails(w io.Writer, report *model.Report) {
	if len(report.Findings) > 0 {
		fmt.Fprintln(w, "\nChecks:")
		for _, f := range report.Findings {
			mark := "✓"
			if !f.Passed {
				mark = "✗"
			}
			fmt.Fprintf(w, "  %s %s [%s]\n", mark, f.RuleID, f.Severity)
			if f.Details != "" {
				fmt.Fprintf(w, "      %s\n", f.Details)
			}
			printCitations(w, f.Citations)
		}
	}

	if len(report.RuleResults) > 0 {
		fmt.Fprintln(w, "\nRules:")
		for _, r := range report.RuleResults {
			fmt.Fprintf(w, "  %-4s %s [%s]\n", r.Status, r.RuleID, r.Severity)
			if r.Message != "" {
				fmt.Fprintf(w, "      %s\n", r.Message)
			}
			printCitations(w, r.Citations)
		}
	}
}

func printCitations(w io.Writer, citations []model.Citation) {
	for _, c := range citations {
		where := fmt.Sprintf("chars %d-%d", c.CharStart, c.CharEnd)
		if c.Page != nil && c.LineStart != nil {
			where = fmt.Sprintf("p.%d l.%d", *c.Page, *c.LineStart)
		}
		fmt.Fprintf(w, "      %s: %q\n", where, c.Quote)
	}
}
