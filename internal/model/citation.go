package model

// Citation points at a span of the analyzed document.
// CharStart and CharEnd are byte offsets into the UTF-8 document text.
type Citation struct {
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
	Quote      string  `json:"quote"`
	Page       *int    `json:"page,omitempty"`       // 1-based, nil when unresolved
	LineStart  *int    `json:"line_start,omitempty"` // 1-based within the page
	LineEnd    *int    `json:"line_end,omitempty"`
	Confidence float64 `json:"confidence"`
}

// InBounds reports whether the span lies within a text of the given length
func (c Citation) InBounds(textLen int) bool {
	return c.CharStart >= 0 && c.CharStart <= c.CharEnd && c.CharEnd <= textLen
}
