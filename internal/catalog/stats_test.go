package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/david/funding-gateway/internal/ingest"
	"github.com/david/funding-gateway/internal/models"
)

func scored(rel, qual *int, enhanced bool, themes ...string) models.EnhancedOpportunity {
	return models.EnhancedOpportunity{
		AfricanRelevanceScore: rel,
		QualityScore:          qual,
		AIEnhanced:            enhanced,
		AIThemes:              themes,
	}
}

func intPtr(v int) *int { return &v }

func TestComputeStats(t *testing.T) {
	refreshed := time.Date(2026, 2, 12, 12, 0, 0, 0, time.UTC)
	s := &Snapshot{
		Branch:      ingest.BranchMockFallback,
		RefreshedAt: refreshed,
		Attempts:    []ingest.Attempt{{Endpoint: "enhanced_ai", Outcome: ingest.OutcomeError}},
		Opportunities: []models.EnhancedOpportunity{
			scored(intPtr(80), intPtr(60), true, "Climate", "Africa"),
			scored(intPtr(45), intPtr(70), false, "Climate", "Health"),
			scored(nil, nil, false, "Climate", "Education", "Governance", "Technology"),
		},
	}

	st := ComputeStats(s)
	assert.Equal(t, 3, st.TotalOpportunities)
	assert.Equal(t, 1, st.AIEnhancedCount)
	assert.Equal(t, 62.5, st.AverageRelevanceScore)
	assert.Equal(t, 65.0, st.AverageQualityScore)
	assert.Equal(t, ingest.BranchMockFallback, st.Branch)
	assert.Equal(t, refreshed, st.LastRefreshed)
	assert.Len(t, st.PluginStatus, 1)

	assert.Len(t, st.TopThemes, 5)
	assert.Equal(t, ThemeCount{Theme: "Climate", Count: 3}, st.TopThemes[0])
	assert.Equal(t, "Africa", st.TopThemes[1].Theme)
}

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats(nil)
	assert.Zero(t, st.TotalOpportunities)
	assert.NotNil(t, st.TopThemes)
	assert.NotNil(t, st.PluginStatus)
}
