package ingest

import (
	"strings"

	"github.com/david/funding-gateway/internal/models"
)

var themeRules = []struct {
	theme    string
	keywords []string
}{
	{"Health", []string{"health", "medical"}},
	{"Education", []string{"education", "school", "learning"}},
	{"Agriculture", []string{"agriculture", "farming", "food"}},
	{"Infrastructure", []string{"infrastructure", "transport", "energy"}},
	{"Governance", []string{"governance", "democracy", "institution"}},
	{"Humanitarian", []string{"humanitarian", "emergency", "crisis"}},
	{"Climate", []string{"climate", "environment", "sustainability"}},
	{"Technology", []string{"technology", "digital", "innovation"}},
	{"Africa", []string{"africa", "african"}},
}

// ExtractThemes tags an opportunity by keyword. A record with no match is
// tagged "Development".
func ExtractThemes(opp models.Opportunity) []string {
	text := strings.ToLower(opp.Title + " " + opp.Summary + " " + opp.ThematicPrio)
	var themes []string
	for _, rule := range themeRules {
		if containsAny(text, rule.keywords) {
			themes = append(themes, rule.theme)
		}
	}
	if len(themes) == 0 {
		return []string{"Development"}
	}
	return themes
}
