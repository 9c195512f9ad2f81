package classify

import (
	"fmt"
	"regexp"

	"github.com/ppiankov/clausewise/internal/model"
)

// WeightTable is the shared keyword and section-header scoring table.
// Profiles add their own weighted terms on top of it
type WeightTable struct {
	Version         string
	Keywords        []model.WeightedTerm
	SectionPatterns []model.WeightedPattern

	keywordRes []*regexp.Regexp
	sectionRes []*regexp.Regexp
}

// DefaultWeights returns the v1 table
func DefaultWeights() *WeightTable {
	t, err := NewWeightTable("v1", defaultKeywords, defaultSections)
	if err != nil {
		panic(err)
	}
	return t
}

// NewWeightTable compiles a table. Declaration order is kept, it decides
// the order of scoring reasons
func NewWeightTable(version string, keywords []model.WeightedTerm, sections []model.WeightedPattern) (*WeightTable, error) {
	t := &WeightTable{
		Version:         version,
		Keywords:        append([]model.WeightedTerm(nil), keywords...),
		SectionPatterns: append([]model.WeightedPattern(nil), sections...),
	}
	for _, kw := range t.Keywords {
		t.keywordRes = append(t.keywordRes, keywordRegexp(kw.Term))
	}
	for _, sp := range t.SectionPatterns {
		re, err := sectionRegexp(sp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("section pattern %q: %w", sp.Pattern, err)
		}
		t.sectionRes = append(t.sectionRes, re)
	}
	return t, nil
}

func keywordRegexp(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
}

func sectionRegexp(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)` + pattern)
}

var defaultKeywords = []model.WeightedTerm{
	// strong document-type indicators
	{Term: "strategic alliance", Weight: 3.0},
	{Term: "alliance agreement", Weight: 3.0},
	{Term: "partnership agreement", Weight: 2.5},
	{Term: "joint venture", Weight: 3.0},
	{Term: "employment agreement", Weight: 3.0},
	{Term: "offer letter", Weight: 2.5},
	{Term: "employment contract", Weight: 3.0},
	{Term: "non-compete", Weight: 3.0},
	{Term: "noncompete", Weight: 3.0},
	{Term: "covenant not to compete", Weight: 3.0},
	{Term: "intellectual property", Weight: 2.5},
	{Term: "ip assignment", Weight: 3.0},
	{Term: "proprietary rights", Weight: 2.0},
	{Term: "service agreement", Weight: 2.5},
	{Term: "master services", Weight: 3.0},
	{Term: "promotion agreement", Weight: 2.5},
	{Term: "marketing agreement", Weight: 2.0},

	// general contract vocabulary
	{Term: "liability", Weight: 1.5},
	{Term: "indemnification", Weight: 1.5},
	{Term: "termination", Weight: 1.0},
	{Term: "confidentiality", Weight: 1.0},
	{Term: "exclusivity", Weight: 1.5},
	{Term: "governing law", Weight: 1.0},
	{Term: "jurisdiction", Weight: 1.0},
	{Term: "damages", Weight: 1.0},
	{Term: "breach", Weight: 1.0},

	// boilerplate clauses
	{Term: "force majeure", Weight: 1.0},
	{Term: "assignment", Weight: 1.0},
	{Term: "severability", Weight: 0.5},
	{Term: "entire agreement", Weight: 0.5},
}

var defaultSections = []model.WeightedPattern{
	{Pattern: `strategic\s+alliance`, Weight: 4.0},
	{Pattern: `employment\s+terms`, Weight: 3.0},
	{Pattern: `non[_\s-]?compete`, Weight: 3.5},
	{Pattern: `intellectual\s+property`, Weight: 2.5},
	{Pattern: `service\s+levels?`, Weight: 2.0},
	{Pattern: `promotion\s+terms`, Weight: 2.5},
	{Pattern: `joint\s+venture`, Weight: 3.5},
}
