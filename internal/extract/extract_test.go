package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/model"
)

func TestParseMoney(t *testing.T) {
	got := ParseMoney("Fee of $1,000,000 and 200,000,000 shares")
	require.Len(t, got, 2)
	assert.Equal(t, 1_000_000.0, got[0].Amount)
	assert.Equal(t, "$", got[0].Currency)
	assert.Equal(t, "$1,000,000", "Fee of $1,000,000 and 200,000,000 shares"[got[0].Start:got[0].End])
	assert.Equal(t, 200_000_000.0, got[1].Amount)
	assert.Empty(t, got[1].Currency)

	got = ParseMoney("Pay USD 2,500.00 within 30 days, or 1500 in total")
	require.Len(t, got, 3)
	assert.Equal(t, "USD", got[0].Currency)
	assert.Equal(t, 2500.0, got[0].Amount)
	assert.Equal(t, 30.0, got[1].Amount)
	assert.Equal(t, 1500.0, got[2].Amount)

	assert.Empty(t, ParseMoney("no digits at all"))
}

func TestParseMoney_Separators(t *testing.T) {
	tests := []struct {
		text     string
		amount   float64
		currency string
	}{
		{"Fee: EUR 1.000.000 payable", 1_000_000, "EUR"},
		{"Fee: EUR 1.500 payable", 1500, "EUR"},
		{"Fee: EUR 2.500.000.50 payable", 2_500_000.5, "EUR"},
		{"Fee: $1,234.56 payable", 1234.56, "$"},
		{"Fee: 12.50 payable", 12.5, ""},
		{"Fee: GBP 10 000 payable", 10_000, "GBP"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParseMoney(tt.text)
			require.Len(t, got, 1)
			assert.Equal(t, tt.amount, got[0].Amount)
			assert.Equal(t, tt.currency, got[0].Currency)
		})
	}

	m, ok := MaxMoney("Total consideration EUR 2.500.000.")
	require.True(t, ok)
	assert.Equal(t, 2_500_000.0, m.Amount)
}

func TestMaxMoney(t *testing.T) {
	m, ok := MaxMoney("Fee of $1,000,000 and 200,000,000 shares")
	require.True(t, ok)
	assert.Equal(t, 200_000_000.0, m.Amount)

	_, ok = MaxMoney("nothing")
	assert.False(t, ok)

	m, ok = MaxMoney("$5 then £5")
	require.True(t, ok)
	assert.Equal(t, "$", m.Currency)
}

func TestLiabilitySection(t *testing.T) {
	text := strings.Repeat("a", 700) + "LIMITATION OF LIABILITY" + strings.Repeat("b", 50)
	sec, ok := LiabilitySection(text)
	require.True(t, ok)
	assert.Equal(t, 100, sec.Start)
	assert.Equal(t, len(text), sec.End)
	assert.Equal(t, "LIMITATION OF LIABILITY", text[sec.HeadingStart:sec.HeadingEnd])

	_, ok = LiabilitySection("indemnity only")
	assert.False(t, ok)
}

func TestHasMonthsOfFees(t *testing.T) {
	assert.True(t, HasMonthsOfFees("capped at twelve (12) months of fees paid"))
	assert.True(t, HasMonthsOfFees("12 months of payments"))
	assert.True(t, HasMonthsOfFees("Twelve months of service fees"))
	assert.False(t, HasMonthsOfFees("6 months of fees"))
}

func TestFraudMentions(t *testing.T) {
	text := "Each party bears sole responsibility for its own fraud. Fraudulent acts aside, fraud by Vendor is excluded."
	got := FraudMentions(text)
	require.Len(t, got, 2)
	assert.Equal(t, "fraud", text[got[0].Start:got[0].End])
	assert.True(t, got[0].AssignedToOther)
	assert.Equal(t, 0, got[0].NearStart)
	assert.Equal(t, len(text), got[0].NearEnd)

	got = FraudMentions(strings.Repeat("x", 400) + " fraud " + strings.Repeat("y", 400))
	require.Len(t, got, 1)
	assert.False(t, got[0].AssignedToOther)
	assert.Equal(t, 101, got[0].NearStart)
	assert.Equal(t, 706, got[0].NearEnd)
}

func TestMaskNoise(t *testing.T) {
	text := "Intro\nSignature page follows\nBody\fCONFIDENTIAL\nConfidentiality obligations apply."
	masked := MaskNoise(text)
	require.Len(t, masked, len(text))
	assert.Equal(t,
		"Intro\n"+strings.Repeat(" ", len("Signature page follows"))+"\nBody\f"+strings.Repeat(" ", len("CONFIDENTIAL"))+"\nConfidentiality obligations apply.",
		masked)

	assert.Equal(t, "clean text", MaskNoise("clean text"))
}

func TestJurisdictions(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"This Agreement shall be governed by the laws of India.", []string{"India"}},
		{"Governing Law: Delaware.", []string{"Delaware"}},
		{"Governing Law. This Agreement is governed by the laws of the State of Delaware. Venue: Ontario", []string{"Delaware", "Ontario"}},
		{"governed by and construed in accordance with the laws of England and Wales", []string{"England and Wales"}},
		{"governed by the laws of the United States of America", []string{"United States of America"}},
		{"courts of competent jurisdiction in Ontario", []string{"Ontario"}},
		{"Governing Law: This Agreement is silent.", nil},
		{"no clause here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var names []string
			for _, j := range Jurisdictions(tt.text) {
				names = append(names, j.Name)
				assert.Equal(t, j.Name, tt.text[j.Start:j.End])
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestAllowed(t *testing.T) {
	allowed := model.DefaultPolicy().Jurisdiction.AllowedCountries
	assert.True(t, Allowed("United States of America", allowed))
	assert.True(t, Allowed("Province of Ontario, Canada", allowed))
	assert.False(t, Allowed("India", allowed))
	assert.False(t, Allowed("Russia", []string{"US"}))
	assert.False(t, Allowed("Anything", nil))
}

func TestAllowed_ReusesCompiledMatchers(t *testing.T) {
	allowed := []string{"Ontario", " Québec "}
	for i := 0; i < 3; i++ {
		assert.True(t, Allowed("Province of Québec", allowed))
		assert.False(t, Allowed("Ontarioville", allowed))
	}

	re, ok := allowedRes.Load("Québec")
	require.True(t, ok)
	assert.Same(t, re, allowedRegexp("Québec"))
}

func TestCite(t *testing.T) {
	text := "0123456789"
	c := Cite(text, 4, 6, 2, 0)
	assert.Equal(t, "234567", c.Quote)
	assert.Equal(t, 4, c.CharStart)
	assert.Equal(t, 6, c.CharEnd)
	assert.Equal(t, 1.0, c.Confidence)

	assert.Equal(t, "234", Cite(text, 4, 6, 2, 3).Quote)
	assert.Equal(t, "0123456789", Cite(text, 0, 10, 140, 0).Quote)
	assert.Equal(t, "é", Cite("aéb", 2, 3, 0, 0).Quote)
}

func TestHTMLText(t *testing.T) {
	doc := `<html><head><title>Deal</title><style>p{}</style></head><body>
<h1>Master Services Agreement</h1>
<p>First <b>bold</b> para.</p>
<script>x()</script>
<div style="page-break-before: always">Second page</div>
<p>Last<br>line</p>
</body></html>`

	text, err := HTMLText(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "Deal\nMaster Services Agreement\nFirst bold para.\fSecond page\nLast\nline", text)
}

func TestHTMLText_MainContent(t *testing.T) {
	doc := `<html><body>
<nav><a href="/">Home</a></nav>
<header>Filing index</header>
<div role="main"><h2>Governing Law</h2><p>Laws of Canada.</p></div>
<footer>Page footer</footer>
</body></html>`

	text, err := HTMLText(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "Governing Law\nLaws of Canada.", text)

	text, err = HTMLText(strings.NewReader(`<body><nav>Menu</nav><p>Only text</p></body>`))
	require.NoError(t, err)
	assert.Equal(t, "Only text", text)
}
