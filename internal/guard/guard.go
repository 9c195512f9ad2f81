// Package guard holds lexical heuristics that tell monetary amounts apart
// from share, unit, warrant and option counts in a window of text.
//
// The heuristics are best-effort by construction: they look for currency
// and unit vocabulary near a span and nothing else.
package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
)

var numericRe = regexp.MustCompile(`\d`)

// Signal is the lexical context detected in a window
type Signal int

const (
	SignalNone     Signal = iota // no numeric content
	SignalMonetary               // currency present, no unit vocabulary
	SignalUnits                  // share/unit vocabulary present
	SignalNumeric                // numbers without currency or unit vocabulary
)

func (s Signal) String() string {
	switch s {
	case SignalMonetary:
		return "monetary"
	case SignalUnits:
		return "units"
	case SignalNumeric:
		return "numeric"
	default:
		return "none"
	}
}

// Guards evaluates context predicates. Build once per configuration;
// safe for concurrent use.
type Guards struct {
	currency    *regexp.Regexp
	unit        *regexp.Regexp
	ruleWords   []string
	padding     int
	rulePadding int
}

// New compiles the guard vocabulary from config
func New(cfg model.GuardConfig) (*Guards, error) {
	currency, err := compileCurrency(cfg.CurrencySymbols, cfg.CurrencyWords)
	if err != nil {
		return nil, fmt.Errorf("compile currency vocabulary: %w", err)
	}
	unit, err := compileWords(cfg.UnitWords)
	if err != nil {
		return nil, fmt.Errorf("compile unit vocabulary: %w", err)
	}

	words := make([]string, 0, len(cfg.MonetaryRuleWords))
	for _, w := range cfg.MonetaryRuleWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words = append(words, w)
		}
	}

	return &Guards{
		currency:    currency,
		unit:        unit,
		ruleWords:   words,
		padding:     cfg.WindowPadding,
		rulePadding: cfg.RuleWindowPadding,
	}, nil
}

// Default returns guards built from the default configuration
func Default() *Guards {
	g, err := New(model.DefaultConfig().Guards)
	if err != nil {
		panic(err)
	}
	return g
}

// HasCurrencySignal reports a currency symbol or currency word in window
func (g *Guards) HasCurrencySignal(window string) bool {
	return g.currency != nil && g.currency.MatchString(window)
}

// HasUnitSignal reports share/unit/warrant/option vocabulary in window
func (g *Guards) HasUnitSignal(window string) bool {
	return g.unit != nil && g.unit.MatchString(window)
}

// LooksMonetary is HasCurrencySignal AND NOT HasUnitSignal
func (g *Guards) LooksMonetary(window string) bool {
	return g.HasCurrencySignal(window) && !g.HasUnitSignal(window)
}

// HasNumeric reports whether window contains a digit
func (g *Guards) HasNumeric(window string) bool {
	return numericRe.MatchString(window)
}

// Classify names the dominant signal of a window. Windows with numbers but
// neither currency nor unit vocabulary return SignalNumeric together with
// model.ErrGuardInconclusive.
func (g *Guards) Classify(window string) (Signal, error) {
	switch {
	case !g.HasNumeric(window):
		return SignalNone, nil
	case g.HasUnitSignal(window):
		return SignalUnits, nil
	case g.HasCurrencySignal(window):
		return SignalMonetary, nil
	default:
		return SignalNumeric, model.ErrGuardInconclusive
	}
}

// IsMonetaryRule reports whether a rule id names a monetary concept
func (g *Guards) IsMonetaryRule(ruleID string) bool {
	id := strings.ToLower(ruleID)
	for _, w := range g.ruleWords {
		if strings.Contains(id, w) {
			return true
		}
	}
	return false
}

// Padding returns the generic guard window padding
func (g *Guards) Padding() int {
	return g.padding
}

// RulePadding returns the rule-context window padding
func (g *Guards) RulePadding() int {
	return g.rulePadding
}

// Window returns text[start-pad : end+pad], clamped to the text bounds
func Window(text string, start, end, pad int) string {
	s := clamp(start, 0, len(text))
	e := clamp(end, 0, len(text))
	if e < s {
		e = s
	}
	return text[clamp(s-pad, 0, len(text)):clamp(e+pad, 0, len(text))]
}

// CitationWindows returns the padded window around every citation
func CitationWindows(text string, citations []model.Citation, pad int) []string {
	windows := make([]string, 0, len(citations))
	for _, c := range citations {
		windows = append(windows, Window(text, c.CharStart, c.CharEnd, pad))
	}
	return windows
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// compileCurrency matches symbols anywhere and words when not embedded in
// other letters, so "EUR1,000" matches but "Europe" does not.
func compileCurrency(symbols, words []string) (*regexp.Regexp, error) {
	var parts []string
	for _, s := range symbols {
		if s != "" {
			parts = append(parts, regexp.QuoteMeta(s))
		}
	}
	if w := wordAlternation(words); w != "" {
		parts = append(parts, `(?:^|[^\pL])`+w+`(?:[^\pL]|$)`)
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return regexp.Compile(`(?i)` + strings.Join(parts, "|"))
}

func compileWords(words []string) (*regexp.Regexp, error) {
	w := wordAlternation(words)
	if w == "" {
		return nil, nil
	}
	return regexp.Compile(`(?i)\b` + w + `\b`)
}

func wordAlternation(words []string) string {
	var quoted []string
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return ""
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}
