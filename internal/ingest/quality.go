package ingest

import "strings"

// DefaultQualityThreshold is the maximum fraction of placeholder fields a raw
// record may carry before it is discarded.
// TODO: confirm 0.9 vs the older 0.6 cut-off with product.
const DefaultQualityThreshold = 0.9

var placeholderValues = map[string]struct{}{
	"not found":     {},
	"not specified": {},
	"dummy data":    {},
	"n/a":           {},
	"null":          {},
	"undefined":     {},
}

// isPlaceholder reports whether a text value carries no information.
func isPlaceholder(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return true
	}
	_, ok := placeholderValues[s]
	return ok
}

// isPlaceholderValue is isPlaceholder for decoded JSON values. Nested
// arrays and objects always count as information.
func isPlaceholderValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return isPlaceholder(val)
	}
	return false
}

// QualityFilter rejects raw records that are mostly placeholders.
type QualityFilter struct {
	Threshold float64
}

func NewQualityFilter(threshold float64) QualityFilter {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultQualityThreshold
	}
	return QualityFilter{Threshold: threshold}
}

// PlaceholderRatio returns the fraction of top-level fields in raw that are
// placeholders.
func PlaceholderRatio(raw Record) float64 {
	if len(raw) == 0 {
		return 1
	}
	missing := 0
	for _, v := range raw {
		if isPlaceholderValue(v) {
			missing++
		}
	}
	return float64(missing) / float64(len(raw))
}

// IsAcceptable reports whether raw carries enough information to be shown.
func (q QualityFilter) IsAcceptable(raw Record) bool {
	if len(raw) == 0 {
		return false
	}
	threshold := q.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultQualityThreshold
	}
	return PlaceholderRatio(raw) <= threshold
}
