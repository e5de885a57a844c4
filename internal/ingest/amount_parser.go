package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// number followed by an optional magnitude word: "2.5M", "1 million", "500k"
	amountNumberRegex = regexp.MustCompile(`(\d[\d,\.\s]*)\s*([A-Za-z]*)(?:[^\d]|$)`)
)

// parseAmountRobust extracts min/max amounts and currency from free-form
// funding text such as "€500,000 - €2M" or "up to EUR 1.5 million".
func parseAmountRobust(text string, defaultCurrency string) (float64, float64, string) {
	textLower := strings.ToLower(text)

	currency := defaultCurrency
	if currency == "" {
		currency = "EUR"
	}
	switch {
	case strings.Contains(textLower, "€") || strings.Contains(textLower, "eur"):
		currency = "EUR"
	case strings.Contains(textLower, "£") || strings.Contains(textLower, "gbp"):
		currency = "GBP"
	case strings.Contains(textLower, "$") || strings.Contains(textLower, "usd") || strings.Contains(textLower, "dollar"):
		currency = "USD"
	case strings.Contains(textLower, "fcfa") || strings.Contains(textLower, "xof"):
		currency = "XOF"
	}

	var amounts []float64
	for _, m := range amountNumberRegex.FindAllStringSubmatch(text, -1) {
		if val, ok := parseNumber(m[1]); ok && val > 0 {
			amounts = append(amounts, val*amountMultiplier(m[2]))
		}
	}

	if len(amounts) == 0 {
		return 0, 0, ""
	}

	if len(amounts) == 1 {
		if strings.Contains(textLower, "minimum") || strings.Contains(textLower, "at least") || strings.Contains(textLower, "from ") {
			return amounts[0], 0, currency
		}
		return 0, amounts[0], currency
	}

	min, max := amounts[0], amounts[0]
	for _, a := range amounts {
		if a < min {
			min = a
		}
		if a > max {
			max = a
		}
	}
	if min == max {
		return 0, max, currency
	}
	return min, max, currency
}

// ParseBudgetAmount extracts a single comparable amount from a funding
// string, honouring M/K suffixes. It returns false when no number is present
// or the value is a known "no amount" phrase.
func ParseBudgetAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isPlaceholder(s) || isDefaultValue(s) || strings.EqualFold(s, "Contact for details") {
		return 0, false
	}
	m := amountNumberRegex.FindStringSubmatch(s)
	if len(m) < 3 {
		return 0, false
	}
	val, ok := parseNumber(m[1])
	if !ok {
		return 0, false
	}
	return val * amountMultiplier(m[2]), true
}

// ParseAmountRange returns the funding range a free-form amount describes.
// A single figure is a point range, "up to X" is [0, X] and "at least X" is
// unbounded above. It returns false when no amount is present.
func ParseAmountRange(s string) (lo, hi float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || isPlaceholder(s) || isDefaultValue(s) || strings.EqualFold(s, "Contact for details") {
		return 0, 0, false
	}
	min, max, _ := parseAmountRobust(s, "")
	switch {
	case min == 0 && max == 0:
		return 0, 0, false
	case max == 0:
		return min, math.Inf(1), true
	case min == 0 && !isUpperBound(s):
		return max, max, true
	}
	return min, max, true
}

func isUpperBound(s string) bool {
	lower := strings.ToLower(s)
	for _, w := range []string{"up to", "max", "under", "less than"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func amountMultiplier(suffix string) float64 {
	switch strings.ToLower(suffix) {
	case "bn", "b", "billion":
		return 1e9
	case "m", "mn", "million", "mio":
		return 1e6
	case "k", "thousand":
		return 1e3
	}
	return 1
}

// parseNumber reads "1,000,000", "1.000.000", "1.5" or "12 000".
func parseNumber(raw string) (float64, bool) {
	clean := strings.TrimRight(strings.TrimSpace(raw), ".,")
	clean = strings.ReplaceAll(clean, " ", "")
	if clean == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(strings.ReplaceAll(clean, ",", ""), 64); err == nil {
		return v, true
	}
	// European thousands separators
	eu := strings.ReplaceAll(clean, ".", "")
	eu = strings.ReplaceAll(eu, ",", ".")
	if v, err := strconv.ParseFloat(eu, 64); err == nil {
		return v, true
	}
	return 0, false
}

// formatEuro renders a numeric budget the way the portals display it: €1,234,567.
func formatEuro(v float64) string {
	n := int64(math.Round(v))
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := "€" + b.String()
	if neg {
		out = "-" + out
	}
	return out
}
