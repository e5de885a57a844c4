package filter

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/david/funding-gateway/internal/models"
)

// Sort orders records by relevance: scored records first, higher scores
// first, then by title with English collation. The sort is stable.
func Sort(opps []models.EnhancedOpportunity) []models.EnhancedOpportunity {
	out := make([]models.EnhancedOpportunity, len(opps))
	copy(out, opps)

	// a Collator keeps internal buffers and is not safe for concurrent use
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasRelevanceScore() != b.HasRelevanceScore() {
			return a.HasRelevanceScore()
		}
		if a.HasRelevanceScore() && a.RelevanceScore() != b.RelevanceScore() {
			return a.RelevanceScore() > b.RelevanceScore()
		}
		return col.CompareString(a.Title, b.Title) < 0
	})
	return out
}

// sortStrings sorts values in place with English collation.
func sortStrings(values []string) {
	collate.New(language.English, collate.IgnoreCase).SortStrings(values)
}
