// Package locate maps byte offsets in extracted document text to
// 1-based page and line numbers.
package locate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/clausewise/internal/model"
)

const (
	// PageBreak separates pages in extracted text
	PageBreak = '\f'
	// LineBreak separates lines within a page
	LineBreak = '\n'
)

// span is a range of byte offsets. Lookups treat end as inclusive so the
// separator that follows a page or line, and len(text), resolve to it.
type span struct {
	start, end int
}

func (s span) contains(pos int) bool {
	return s.start <= pos && pos <= s.end
}

// Location is the resolved provenance of a span. Nil fields are unresolved.
type Location struct {
	Page      *int `json:"page,omitempty"`
	LineStart *int `json:"line_start,omitempty"`
	LineEnd   *int `json:"line_end,omitempty"`
}

// Locator maps spans of one document. It is immutable after construction
// and safe for concurrent use.
type Locator struct {
	length int
	pages  []span
	lines  [][]span // per page
}

// New precomputes page and line boundaries for text
func New(text string) *Locator {
	l := &Locator{length: len(text)}

	pos := 0
	for _, page := range strings.Split(text, string(PageBreak)) {
		l.pages = append(l.pages, span{start: pos, end: pos + len(page)})

		var lines []span
		linePos := pos
		for _, line := range strings.Split(page, string(LineBreak)) {
			lines = append(lines, span{start: linePos, end: linePos + len(line)})
			linePos += len(line) + 1
		}
		l.lines = append(l.lines, lines)

		pos += len(page) + 1
	}

	return l
}

// Len returns the length of the indexed text
func (l *Locator) Len() int {
	return l.length
}

// Pages returns the number of pages
func (l *Locator) Pages() int {
	return len(l.pages)
}

// Locate resolves the page of start and the lines of start and end.
// Page is nil only when start is outside [0, len(text)].
func (l *Locator) Locate(start, end int) Location {
	pageIdx := -1
	for i, p := range l.pages {
		if p.contains(start) {
			pageIdx = i
			break
		}
	}
	if pageIdx < 0 {
		return Location{}
	}

	loc := Location{Page: intPtr(pageIdx + 1)}
	lines := l.lines[pageIdx]

	for j, ln := range lines {
		if loc.LineStart == nil && ln.contains(start) {
			loc.LineStart = intPtr(j + 1)
		}
		if ln.contains(end) {
			loc.LineEnd = intPtr(j + 1)
		}
	}

	// end on a later page, or past the page: last line starting at or before end
	if loc.LineStart != nil && loc.LineEnd == nil {
		idx := sort.Search(len(lines), func(j int) bool { return lines[j].start > end })
		if idx > 0 {
			loc.LineEnd = intPtr(idx)
		}
	}

	return loc
}

// Check reports whether a span can be resolved exactly
func (l *Locator) Check(start, end int) error {
	if start < 0 || end < start || end > l.length {
		return fmt.Errorf("%w: [%d,%d) in text of length %d", model.ErrSpanOutOfBounds, start, end, l.length)
	}
	return nil
}

// Enhance returns a copy of the citation with page and line provenance.
// Confidence is 1.0 when page and start line resolve for an in-bounds span,
// 0.5 otherwise. Offsets and quote are never changed.
func (l *Locator) Enhance(c model.Citation) model.Citation {
	loc := l.Locate(c.CharStart, c.CharEnd)

	out := c
	out.Page = loc.Page
	out.LineStart = loc.LineStart
	out.LineEnd = loc.LineEnd

	out.Confidence = 1.0
	if loc.Page == nil || loc.LineStart == nil || l.Check(c.CharStart, c.CharEnd) != nil {
		out.Confidence = 0.5
	}

	return out
}

// EnhanceAll enhances every citation, returning a new slice
func (l *Locator) EnhanceAll(citations []model.Citation) []model.Citation {
	if citations == nil {
		return nil
	}
	out := make([]model.Citation, len(citations))
	for i, c := range citations {
		out[i] = l.Enhance(c)
	}
	return out
}

func intPtr(v int) *int {
	return &v
}
