package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/funding-gateway/internal/models"
)

func TestScoreRelevance_AdditiveAndClamped(t *testing.T) {
	tests := []struct {
		name string
		opp  models.Opportunity
		want int
	}{
		{"no signal", models.Opportunity{Title: "Research grant", Country: "France"}, 0},
		{"country only", models.Opportunity{Title: "Water access", Country: "Ghana"}, 15},
		{"africa and kenya", models.Opportunity{Title: "Climate Action Fund", Summary: "Supporting African climate adaptation", Country: "Kenya"}, 45},
		{"every signal caps at 100", models.Opportunity{
			Title:   "Emergency response in the Sahel",
			Summary: "Humanitarian aid for sub-saharan Africa, West Africa, Mali and Niger development",
			Country: "Regional",
		}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreRelevance(tt.opp))
		})
	}
}

func TestScoreQuality_IgnoresDefaults(t *testing.T) {
	full := models.Opportunity{
		Title:              "Digital skills for youth",
		Summary:            strings.Repeat("a detailed summary ", 8),
		Deadline:           "2026-01-31",
		FundingAmount:      "€1,000,000",
		Eligibility:        "Registered NGOs with three years of experience",
		ApplicationProcess: "Submit a concept note through the online portal",
		MipPrios:           []string{"Human development"},
		Documents:          []models.Document{{Name: "Guidelines.pdf", URL: "#"}},
	}
	assert.Equal(t, 100, ScoreQuality(full))

	defaults := models.Opportunity{
		Title:              "Untitled Opportunity",
		Summary:            "No description available",
		Deadline:           models.NoDeadline,
		FundingAmount:      "Not specified",
		Eligibility:        "No eligibility information available",
		ApplicationProcess: "Please check the source website for application procedures",
		MipPrios:           []string{},
		Documents:          []models.Document{{Name: "No documents available", URL: "#"}},
	}
	assert.Equal(t, 0, ScoreQuality(defaults))
}

func TestScoreQuality_DocumentPlaceholderScoresNothing(t *testing.T) {
	base := models.Opportunity{Title: "Digital skills for youth"}

	placeholder := base
	placeholder.Documents = []models.Document{{Name: "No documents available", URL: "#"}}
	named := base
	named.Documents = []models.Document{{Name: "Call text", URL: "https://example.org/call.pdf"}}

	assert.Equal(t, ScoreQuality(base), ScoreQuality(placeholder))
	assert.Equal(t, ScoreQuality(base)+5, ScoreQuality(named))
}

func TestEnhance_ExternalScoresWin(t *testing.T) {
	opp := models.EnhancedOpportunity{
		Opportunity: models.Opportunity{
			Title:   "Health systems in Africa",
			Summary: "Strengthening primary health care",
		},
		AfricanRelevanceScore: intPtr(70),
		AIThemes:              []string{"Primary care"},
	}

	got := Enhance(opp)
	require.NotNil(t, got.AfricanRelevanceScore)
	require.NotNil(t, got.QualityScore)
	assert.Equal(t, 70, *got.AfricanRelevanceScore)
	assert.Equal(t, ScoreQuality(opp.Opportunity), *got.QualityScore)
	assert.Equal(t, []string{"Primary care"}, got.AIThemes)
	assert.Equal(t, models.ScoreExternal, got.ScoreSource)
	assert.False(t, got.AIEnhanced)

	// the input is not modified
	assert.Nil(t, opp.QualityScore)
}

func TestEnhance_HeuristicWhenNothingSupplied(t *testing.T) {
	got := Enhance(models.EnhancedOpportunity{Opportunity: models.Opportunity{Title: "School meals in Chad"}})

	require.NotNil(t, got.AfricanRelevanceScore)
	assert.Equal(t, 15, *got.AfricanRelevanceScore)
	assert.Equal(t, []string{"Education"}, got.AIThemes)
	assert.Equal(t, models.ScoreHeuristic, got.ScoreSource)
}

func TestScores_AlwaysInRange(t *testing.T) {
	records, err := MockRecords()
	require.NoError(t, err)

	opps, _ := newTestNormalizer().NormalizeAll(records, KindMock)
	for _, o := range EnhanceAll(opps) {
		assert.GreaterOrEqual(t, *o.AfricanRelevanceScore, 0)
		assert.LessOrEqual(t, *o.AfricanRelevanceScore, 100)
		assert.GreaterOrEqual(t, *o.QualityScore, 0)
		assert.LessOrEqual(t, *o.QualityScore, 100)
	}
}

func TestExtractThemes(t *testing.T) {
	tests := []struct {
		name string
		opp  models.Opportunity
		want []string
	}{
		{"fallback", models.Opportunity{Title: "Call for proposals"}, []string{"Development"}},
		{"ordered rules", models.Opportunity{
			Title:        "Digital health and school innovation",
			Summary:      "Emergency crisis response across Africa",
			ThematicPrio: "Climate",
		}, []string{"Health", "Education", "Humanitarian", "Climate", "Technology", "Africa"}},
		{"energy is infrastructure", models.Opportunity{Title: "Green energy transition"}, []string{"Infrastructure"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractThemes(tt.opp))
		})
	}
}

func intPtr(v int) *int { return &v }
