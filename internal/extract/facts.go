// Package extract derives facts from contract text with regular
// expressions: monetary amounts, the limitation-of-liability section,
// fraud mentions and governing-law clauses. It also turns HTML into plain
// text and masks signature-page noise. All offsets are byte offsets into
// the text passed in.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	LiabilityLookBehind = 600
	LiabilityLookAhead  = 1200
	FraudNeighbourhood  = 300
)

var (
	moneyRe = regexp.MustCompile(`(?i)(US\$|A\$|\$|USD|EUR|€|GBP|£|AUD)?\s?(\d{1,3}(?:[,.\s]\d{3})+(?:\.\d{2})?|\d+(?:\.\d{2})?)`)

	liabilityRe  = regexp.MustCompile(`(?i)limitation of liability|liability(?:\s+limit| cap)?`)
	monthsFeesRe = regexp.MustCompile(`(?i)(?:twelve|12)\s*\(?12?\)?\s*months? of (?:fees|payments|service fees)`)
	fraudRe      = regexp.MustCompile(`(?i)\bfraud\b`)
	otherPartyRe = regexp.MustCompile(`(?i)(?:sole|entire)\s+responsibility|liab(?:ility)?\s+(?:of|on)\s+(?:the\s+)?other\s+party`)
	noiseRe      = regexp.MustCompile(`(?i)signature page follows|\bconfidential\b|translation, for reference only`)
)

// Money is one numeric amount found in text, with its currency marker if any.
type Money struct {
	Amount   float64
	Currency string
	Start    int
	End      int
}

// ParseMoney returns every amount in text, in order. Amounts whose digits
// do not form a number after removing separators are skipped.
func ParseMoney(text string) []Money {
	var out []Money
	for _, m := range moneyRe.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[4]:m[5]]
		amount, err := normAmount(raw)
		if err != nil {
			continue
		}
		currency := ""
		if m[2] >= 0 {
			currency = text[m[2]:m[3]]
		}
		out = append(out, Money{Amount: amount, Currency: currency, Start: m[0], End: m[1]})
	}
	return out
}

// MaxMoney returns the largest amount in text. The first occurrence wins ties.
func MaxMoney(text string) (Money, bool) {
	return maxOf(ParseMoney(text))
}

func maxOf(amounts []Money) (Money, bool) {
	if len(amounts) == 0 {
		return Money{}, false
	}
	best := amounts[0]
	for _, m := range amounts[1:] {
		if m.Amount > best.Amount {
			best = m
		}
	}
	return best, true
}

// normAmount parses a matched amount. Dots are thousands separators when
// there is more than one of them or a single one is followed by exactly
// three digits; a final two-digit group stays the decimal part.
func normAmount(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v' {
			return -1
		}
		return r
	}, raw)

	if groups := strings.Split(cleaned, "."); len(groups) > 2 || (len(groups) == 2 && len(groups[1]) == 3) {
		last := groups[len(groups)-1]
		if len(last) == 2 {
			cleaned = strings.Join(groups[:len(groups)-1], "") + "." + last
		} else {
			cleaned = strings.Join(groups, "")
		}
	}
	return strconv.ParseFloat(cleaned, 64)
}

// Section is the neighbourhood of a liability heading.
type Section struct {
	Start, End               int
	HeadingStart, HeadingEnd int
}

// LiabilitySection finds the first liability heading and the section
// around it.
func LiabilitySection(text string) (Section, bool) {
	loc := liabilityRe.FindStringIndex(text)
	if loc == nil {
		return Section{}, false
	}
	return Section{
		Start:        max(0, loc[0]-LiabilityLookBehind),
		End:          min(len(text), loc[1]+LiabilityLookAhead),
		HeadingStart: loc[0],
		HeadingEnd:   loc[1],
	}, true
}

// HasMonthsOfFees reports a "twelve (12) months of fees" style cap.
func HasMonthsOfFees(text string) bool {
	return monthsFeesRe.MatchString(text)
}

// FraudMention is one "fraud" occurrence and its neighbourhood.
type FraudMention struct {
	Start, End      int
	NearStart       int
	NearEnd         int
	AssignedToOther bool
}

// FraudMentions returns every whole-word "fraud" in text. Each carries
// whether liability is assigned to the other party within the neighbourhood.
func FraudMentions(text string) []FraudMention {
	var out []FraudMention
	for _, loc := range fraudRe.FindAllStringIndex(text, -1) {
		ns := max(0, loc[0]-FraudNeighbourhood)
		ne := min(len(text), loc[1]+FraudNeighbourhood)
		out = append(out, FraudMention{
			Start:           loc[0],
			End:             loc[1],
			NearStart:       ns,
			NearEnd:         ne,
			AssignedToOther: otherPartyRe.MatchString(text[ns:ne]),
		})
	}
	return out
}

// MaskNoise blanks lines that carry signature-page or header noise. Every
// byte of such a line becomes a space; line and page breaks are kept, so
// offsets into the result are offsets into the input.
func MaskNoise(text string) string {
	if !noiseRe.MatchString(text) {
		return text
	}
	b := []byte(text)
	lineStart := 0
	for i := 0; i <= len(b); i++ {
		if i < len(b) && b[i] != '\n' && b[i] != '\f' {
			continue
		}
		if noiseRe.Match(b[lineStart:i]) {
			for j := lineStart; j < i; j++ {
				b[j] = ' '
			}
		}
		lineStart = i + 1
	}
	return string(b)
}
