package locate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/model"
)

const sample = "Title line\nSecond line\nThird\fPage two first\nPage two second\f\fLast page"

func deref(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}

func TestLocator_Boundaries(t *testing.T) {
	l := New(sample)
	assert.Equal(t, 4, l.Pages())
	assert.Equal(t, len(sample), l.Len())
}

func TestLocator_Locate(t *testing.T) {
	l := New(sample)
	p2 := strings.Index(sample, "Page two second")
	last := strings.Index(sample, "Last page")

	tests := []struct {
		name               string
		start, end         int
		page, lStart, lEnd int
	}{
		{"first char", 0, 5, 1, 1, 1},
		{"second line", 11, 17, 1, 2, 2},
		{"spans lines", 2, 20, 1, 1, 2},
		{"second page second line", p2, p2 + 4, 2, 2, 2},
		{"end on later page", 2, p2, 1, 1, 3},
		{"empty page", last - 1, last - 1, 3, 1, 1},
		{"end of text", len(sample), len(sample), 4, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := l.Locate(tt.start, tt.end)
			assert.Equal(t, tt.page, deref(loc.Page), "page")
			assert.Equal(t, tt.lStart, deref(loc.LineStart), "line start")
			assert.Equal(t, tt.lEnd, deref(loc.LineEnd), "line end")
		})
	}
}

func TestLocator_OutOfBounds(t *testing.T) {
	l := New(sample)

	loc := l.Locate(-1, 3)
	assert.Nil(t, loc.Page)
	assert.Nil(t, loc.LineStart)
	assert.Nil(t, loc.LineEnd)

	loc = l.Locate(len(sample)+1, len(sample)+5)
	assert.Nil(t, loc.Page)

	err := l.Check(0, len(sample)+10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSpanOutOfBounds))
	assert.NoError(t, l.Check(0, len(sample)))
}

func TestLocator_AlwaysResolvesPageInBounds(t *testing.T) {
	texts := []string{"", "a", "\f", "\n\n", sample, "x\f\fy\nz\f"}
	for _, text := range texts {
		l := New(text)
		for s := 0; s <= len(text); s++ {
			for e := s; e <= len(text); e++ {
				loc := l.Locate(s, e)
				require.NotNil(t, loc.Page, "text %q span [%d,%d]", text, s, e)
				assert.GreaterOrEqual(t, *loc.Page, 1)
				require.NotNil(t, loc.LineStart, "text %q span [%d,%d]", text, s, e)
			}
		}
	}
}

func TestLocator_Idempotent(t *testing.T) {
	l := New(sample)
	for s := 0; s < len(sample); s += 3 {
		a := l.Locate(s, s+7)
		b := l.Locate(s, s+7)
		assert.Equal(t, deref(a.Page), deref(b.Page))
		assert.Equal(t, deref(a.LineStart), deref(b.LineStart))
		assert.Equal(t, deref(a.LineEnd), deref(b.LineEnd))
	}
}

func TestLocator_Enhance(t *testing.T) {
	l := New(sample)
	p2 := strings.Index(sample, "Page two first")

	c := model.Citation{CharStart: p2, CharEnd: p2 + 8, Quote: "Page two"}
	got := l.Enhance(c)

	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, 2, deref(got.Page))
	assert.Equal(t, 1, deref(got.LineStart))
	assert.Equal(t, 1, deref(got.LineEnd))
	assert.Equal(t, c.CharStart, got.CharStart)
	assert.Equal(t, c.CharEnd, got.CharEnd)
	assert.Equal(t, c.Quote, got.Quote)
	assert.Nil(t, c.Page, "input citation must not be mutated")

	// Re-deriving from the stored offsets yields the same provenance
	again := l.Locate(got.CharStart, got.CharEnd)
	assert.Equal(t, deref(got.Page), deref(again.Page))
	assert.Equal(t, deref(got.LineStart), deref(again.LineStart))
	assert.Equal(t, deref(got.LineEnd), deref(again.LineEnd))
	assert.Equal(t, got, l.Enhance(got))
}

func TestLocator_EnhanceLowConfidence(t *testing.T) {
	l := New(sample)

	missing := l.Enhance(model.Citation{CharStart: len(sample) + 3, CharEnd: len(sample) + 9})
	assert.Equal(t, 0.5, missing.Confidence)
	assert.Nil(t, missing.Page)

	// start resolves but end runs past the text
	overrun := l.Enhance(model.Citation{CharStart: 0, CharEnd: len(sample) + 50})
	assert.Equal(t, 0.5, overrun.Confidence)
	assert.Equal(t, 1, deref(overrun.Page))
}

func TestLocator_EnhanceAll(t *testing.T) {
	l := New(sample)
	assert.Nil(t, l.EnhanceAll(nil))

	out := l.EnhanceAll([]model.Citation{{CharStart: 0, CharEnd: 1}, {CharStart: 12, CharEnd: 14}})
	require.Len(t, out, 2)
	assert.Equal(t, 1, deref(out[0].LineStart))
	assert.Equal(t, 2, deref(out[1].LineStart))
}
