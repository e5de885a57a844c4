package ingest

import (
	"strings"

	"github.com/david/funding-gateway/internal/models"
)

type relevanceSignal struct {
	points   int
	keywords []string
}

var relevanceSignals = []relevanceSignal{
	{30, []string{"africa", "african"}},
	{25, []string{"sub-saharan", "sahel"}},
	{20, []string{"west africa", "east africa", "central africa", "southern africa"}},
	{15, []string{"nigeria", "kenya", "ethiopia", "ghana", "senegal", "mali", "burkina faso", "niger", "chad", "sudan", "somalia"}},
	{10, []string{"development", "poverty"}},
	{10, []string{"humanitarian", "emergency"}},
	{5, []string{"multi-country", "regional"}},
}

// ScoreRelevance estimates how relevant an opportunity is to African
// development work. Signals add up independently; only the total is capped.
func ScoreRelevance(opp models.Opportunity) int {
	text := strings.ToLower(opp.Title + " " + opp.Summary + " " + opp.Country)
	score := 0
	for _, sig := range relevanceSignals {
		if containsAny(text, sig.keywords) {
			score += sig.points
		}
	}
	return models.ClampScore(score)
}

// ScoreQuality estimates how complete an opportunity record is. Fallback
// strings inserted by the normalizer do not count as content.
func ScoreQuality(opp models.Opportunity) int {
	score := 0
	if hasContent(opp.Title) {
		score += 15
	}
	summary := contentLen(opp.Summary)
	if summary > 50 {
		score += 15
	}
	if opp.Deadline != "" && opp.Deadline != models.NoDeadline {
		score += 15
	}
	if hasContent(opp.FundingAmount) {
		score += 15
	}
	if contentLen(opp.Eligibility) > 30 {
		score += 10
	}
	if contentLen(opp.ApplicationProcess) > 30 {
		score += 10
	}
	if summary > 100 {
		score += 10
	}
	if len(opp.MipPrios) > 0 {
		score += 5
	}
	for _, d := range opp.Documents {
		if hasContent(d.Name) {
			score += 5
			break
		}
	}
	return models.ClampScore(score)
}

// Enhance attaches scores and themes. Values supplied by the source win and
// are only clamped; missing ones are computed heuristically.
func Enhance(opp models.EnhancedOpportunity) models.EnhancedOpportunity {
	external := opp.AfricanRelevanceScore != nil || opp.QualityScore != nil

	if opp.AfricanRelevanceScore != nil {
		opp.AfricanRelevanceScore = models.Score(*opp.AfricanRelevanceScore)
	} else {
		opp.AfricanRelevanceScore = models.Score(ScoreRelevance(opp.Opportunity))
	}
	if opp.QualityScore != nil {
		opp.QualityScore = models.Score(*opp.QualityScore)
	} else {
		opp.QualityScore = models.Score(ScoreQuality(opp.Opportunity))
	}
	if len(opp.AIThemes) == 0 {
		opp.AIThemes = ExtractThemes(opp.Opportunity)
	}

	if external {
		opp.ScoreSource = models.ScoreExternal
	} else {
		opp.ScoreSource = models.ScoreHeuristic
	}
	return opp
}

// EnhanceAll returns an annotated copy of opps.
func EnhanceAll(opps []models.EnhancedOpportunity) []models.EnhancedOpportunity {
	out := make([]models.EnhancedOpportunity, len(opps))
	for i, o := range opps {
		out[i] = Enhance(o)
	}
	return out
}

func hasContent(s string) bool {
	return !isPlaceholder(s) && !isDefaultValue(s)
}

func contentLen(s string) int {
	if !hasContent(s) {
		return 0
	}
	return len([]rune(s))
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
