package ingest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/david/funding-gateway/internal/models"
)

func TestParseBudgetAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"€15,000,000", 15_000_000, true},
		{"Up to $2M", 2_000_000, true},
		{"EUR 1.5 million", 1_500_000, true},
		{"500k", 500_000, true},
		{"1.000.000 EUR", 1_000_000, true},
		{"Amount not specified", 0, false},
		{"Contact for details", 0, false},
		{"Not found", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseBudgetAmount(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestParseAmountRobust_Range(t *testing.T) {
	min, max, cur := parseAmountRobust("€500,000 - €2M", "")
	assert.Equal(t, 500_000.0, min)
	assert.Equal(t, 2_000_000.0, max)
	assert.Equal(t, "EUR", cur)

	min, max, cur = parseAmountRobust("at least USD 10000", "")
	assert.Equal(t, 10_000.0, min)
	assert.Equal(t, 0.0, max)
	assert.Equal(t, "USD", cur)
}

func TestParseAmountRange(t *testing.T) {
	tests := []struct {
		in     string
		lo, hi float64
		ok     bool
	}{
		{"€500,000 - €2M", 500_000, 2_000_000, true},
		{"€2,000,000", 2_000_000, 2_000_000, true},
		{"up to EUR 1.5 million", 0, 1_500_000, true},
		{"Amount not specified", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lo, hi, ok := ParseAmountRange(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}

	lo, hi, ok := ParseAmountRange("at least USD 10000")
	assert.True(t, ok)
	assert.Equal(t, 10_000.0, lo)
	assert.True(t, math.IsInf(hi, 1))
}

func TestFormatEuro(t *testing.T) {
	assert.Equal(t, "€0", formatEuro(0))
	assert.Equal(t, "€999", formatEuro(999))
	assert.Equal(t, "€1,234,567", formatEuro(1234567.4))
}

func TestFormatDeadline(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"iso", "2024-12-31", "2024-12-31"},
		{"rfc3339", "2025-06-30T12:00:00Z", "2025-06-30"},
		{"day month year", "31 December 2025", "2025-12-31"},
		{"month day year", "December 31, 2025", "2025-12-31"},
		{"epoch millis", 1735603200000.0, "2024-12-31"},
		{"epoch millis string", "1735603200000", "2024-12-31"},
		{"french with prefix", "Deadline: 15 mars 2026", "2026-03-15"},
		{"placeholder", "Not found", models.NoDeadline},
		{"free text", "soon", models.NoDeadline},
		{"nil", nil, models.NoDeadline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDeadline(tt.in))
		})
	}
}

func TestParseDeadline_Sentinel(t *testing.T) {
	_, ok := ParseDeadline(models.NoDeadline)
	assert.False(t, ok)

	d, ok := ParseDeadline("2025-01-15")
	assert.True(t, ok)
	assert.Equal(t, 15, d.Day())
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   []string
		want models.Status
	}{
		{[]string{"31094501"}, models.StatusOpen},
		{[]string{"31094502"}, models.StatusUpcoming},
		{[]string{"closed", "31094503"}, models.StatusClosed},
		{[]string{"Call ended"}, models.StatusClosed},
		{[]string{"Opening soon"}, models.StatusUpcoming},
		{[]string{"Forthcoming"}, models.StatusUpcoming},
		{[]string{"open"}, models.StatusOpen},
		{[]string{"Not found", "closed"}, models.StatusClosed},
		{nil, models.StatusOpen},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeStatus(tt.in...), "%v", tt.in)
	}
}

func TestNormalizeFundingType(t *testing.T) {
	assert.Equal(t, models.FundingHumanitarian, normalizeFundingType("Emergency response"))
	assert.Equal(t, models.FundingHumanitarian, normalizeFundingType("Crisis"))
	assert.Equal(t, models.FundingDevelopment, normalizeFundingType("Development Funding"))
	assert.Equal(t, models.FundingDevelopment, normalizeFundingType(""))
}

func TestSubRegion(t *testing.T) {
	tests := map[string]string{
		"Kenya":             "East Africa",
		"Equatorial Guinea": "Central Africa",
		"Guinea":            "West Africa",
		"Somalia":           "East Africa",
		"Mali":              "West Africa",
		"Côte d'Ivoire":     "West Africa",
		"Ivory Coast":       "West Africa",
		"DRC":               "Central Africa",
		"South Africa":      "Southern Africa",
		"Morocco":           "North Africa",
		"EU Member States":  "Europe",
		"european union":    "Europe",
		"Multi-country":     "Africa",
		"Regional":          "Africa",
		"":                  "Africa",
	}
	for country, want := range tests {
		assert.Equal(t, want, SubRegion(country), country)
	}
}
