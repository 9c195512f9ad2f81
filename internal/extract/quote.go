package extract

import (
	"unicode/utf8"

	"github.com/ppiankov/clausewise/internal/model"
)

// Cite builds a citation for [start, end) whose quote is the span padded
// by pad bytes on each side, clamped to text and cut to maxLen bytes when
// maxLen > 0. Quote bounds never split a rune.
func Cite(text string, start, end, pad, maxLen int) model.Citation {
	qs := max(0, start-pad)
	qe := min(len(text), end+pad)
	if qs > qe {
		qs = qe
	}
	if maxLen > 0 && qe-qs > maxLen {
		qe = qs + maxLen
	}
	for qs > 0 && qs < len(text) && !utf8.RuneStart(text[qs]) {
		qs--
	}
	for qe < len(text) && qe > qs && !utf8.RuneStart(text[qe]) {
		qe--
	}
	return model.Citation{
		CharStart:  start,
		CharEnd:    end,
		Quote:      text[qs:qe],
		Confidence: 1,
	}
}
