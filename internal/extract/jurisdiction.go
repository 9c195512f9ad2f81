package extract

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// place is a run of capitalized words, allowing "of", "and" and "&"
// between them ("United States of America", "England and Wales") and
// dotted abbreviations ("U.S.").
const place = `((?:(?:[A-Z]\.){2,}|[A-Z][\pL'\-]*)(?:[ \t]+(?:(?:of|and|&)[ \t]+)?(?:(?:[A-Z]\.){2,}|[A-Z][\pL'\-]*))*)`

var (
	governedByRe = regexp.MustCompile(`(?i:governed\s+by(?:\s+and\s+(?:construed|interpreted)\s+in\s+accordance\s+with)?\s+the\s+laws?\s+of)\s+(?i:the\s+)?(?i:(?:state|province|commonwealth|republic|kingdom|federation)\s+of\s+)?` + place)
	govLawRe     = regexp.MustCompile(`(?i:governing\s+law|jurisdiction|venue)[ \t]*[:\-]?[ \t]*(?i:(?:of|in)[ \t]+)?(?i:the[ \t]+)?` + place)
)

// words that start a sentence after "Governing Law." rather than name a place
var notPlaces = map[string]bool{
	"the": true, "this": true, "that": true, "these": true, "each": true,
	"any": true, "all": true, "either": true, "neither": true, "such": true,
	"party": true, "parties": true, "agreement": true, "company": true,
	"customer": true, "supplier": true, "section": true, "article": true,
	"notwithstanding": true, "in": true, "if": true, "except": true,
	"subject": true, "no": true,
}

// Jurisdiction is a governing-law or venue clause and the place it names.
type Jurisdiction struct {
	Name  string
	Start int // of Name
	End   int
}

// Jurisdictions returns every governing-law clause in text order.
// "governed by the laws of X" is matched first; "Governing law: X",
// "jurisdiction of X" and "venue in X" are added where they name a
// different span.
func Jurisdictions(text string) []Jurisdiction {
	var out []Jurisdiction
	for _, m := range governedByRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Jurisdiction{Name: text[m[2]:m[3]], Start: m[2], End: m[3]})
	}
	for _, m := range govLawRe.FindAllStringSubmatchIndex(text, -1) {
		j := Jurisdiction{Name: text[m[2]:m[3]], Start: m[2], End: m[3]}
		if notPlaces[strings.ToLower(firstWord(j.Name))] || overlaps(out, j) {
			continue
		}
		out = append(out, j)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Start < out[b].Start })
	return out
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

func overlaps(found []Jurisdiction, j Jurisdiction) bool {
	for _, f := range found {
		if j.Start < f.End && f.Start < j.End {
			return true
		}
	}
	return false
}

// Allowed reports whether name contains one of the allowed jurisdictions
// as whole words, case-insensitively.
func Allowed(name string, allowed []string) bool {
	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if allowedRegexp(a).MatchString(name) {
			return true
		}
	}
	return false
}

var allowedRes sync.Map // jurisdiction -> *regexp.Regexp

func allowedRegexp(jurisdiction string) *regexp.Regexp {
	if cached, ok := allowedRes.Load(jurisdiction); ok {
		return cached.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)(?:^|[^\pL\pN])` + regexp.QuoteMeta(jurisdiction) + `(?:[^\pL\pN]|$)`)
	cached, _ := allowedRes.LoadOrStore(jurisdiction, re)
	return cached.(*regexp.Regexp)
}
