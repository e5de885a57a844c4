package catalog

import (
	"math"
	"sort"
	"time"

	"github.com/david/funding-gateway/internal/ingest"
)

// ThemeCount is how many opportunities carry a theme.
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// Stats summarises a snapshot.
type Stats struct {
	TotalOpportunities    int              `json:"total_opportunities"`
	AIEnhancedCount       int              `json:"ai_enhanced_count"`
	AverageRelevanceScore float64          `json:"average_relevance_score"`
	AverageQualityScore   float64          `json:"average_quality_score"`
	TopThemes             []ThemeCount     `json:"top_themes"`
	Branch                ingest.Branch    `json:"branch"`
	LastRefreshed         time.Time        `json:"last_refreshed"`
	PluginStatus          []ingest.Attempt `json:"plugin_status"`
}

const topThemeCount = 5

// ComputeStats derives the summary for s. Averages only cover scored
// records and are rounded to one decimal.
func ComputeStats(s *Snapshot) Stats {
	st := Stats{
		TopThemes:    []ThemeCount{},
		PluginStatus: []ingest.Attempt{},
	}
	if s == nil {
		return st
	}
	st.TotalOpportunities = len(s.Opportunities)
	st.Branch = s.Branch
	st.LastRefreshed = s.RefreshedAt
	if len(s.Attempts) > 0 {
		st.PluginStatus = append(st.PluginStatus, s.Attempts...)
	}

	var relSum, relN, qualSum, qualN int
	themes := map[string]int{}
	for _, o := range s.Opportunities {
		if o.AIEnhanced {
			st.AIEnhancedCount++
		}
		if o.AfricanRelevanceScore != nil {
			relSum += *o.AfricanRelevanceScore
			relN++
		}
		if o.QualityScore != nil {
			qualSum += *o.QualityScore
			qualN++
		}
		for _, t := range o.AIThemes {
			themes[t]++
		}
	}
	st.AverageRelevanceScore = average(relSum, relN)
	st.AverageQualityScore = average(qualSum, qualN)

	for t, n := range themes {
		st.TopThemes = append(st.TopThemes, ThemeCount{Theme: t, Count: n})
	}
	sort.Slice(st.TopThemes, func(i, j int) bool {
		if st.TopThemes[i].Count != st.TopThemes[j].Count {
			return st.TopThemes[i].Count > st.TopThemes[j].Count
		}
		return st.TopThemes[i].Theme < st.TopThemes[j].Theme
	})
	if len(st.TopThemes) > topThemeCount {
		st.TopThemes = st.TopThemes[:topThemeCount]
	}
	return st
}

func average(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}
