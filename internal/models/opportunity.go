package models

import "strings"

// Status is the normalized lifecycle state of an opportunity.
type Status string

const (
	StatusOpen     Status = "Open"
	StatusUpcoming Status = "Upcoming"
	StatusClosed   Status = "Closed"
)

// StatusForthcoming is the label some sources and UIs use for StatusUpcoming.
const StatusForthcoming = "Forthcoming"

// StatusEquals compares a status against a free-form label, treating
// "upcoming" and "forthcoming" as the same value.
func StatusEquals(s Status, label string) bool {
	label = strings.TrimSpace(label)
	if strings.EqualFold(string(s), label) {
		return true
	}
	if s == StatusUpcoming && strings.EqualFold(label, StatusForthcoming) {
		return true
	}
	return false
}

type FundingType string

const (
	FundingDevelopment  FundingType = "Development"
	FundingHumanitarian FundingType = "Humanitarian"
)

// NoDeadline is the sentinel stored in Deadline when no date could be parsed.
const NoDeadline = "No deadline specified"

type ScoreSource string

const (
	ScoreExternal  ScoreSource = "external"
	ScoreHeuristic ScoreSource = "heuristic"
)

type Document struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Contact struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Details string `json:"details"`
}

// Opportunity is the canonical record every source is normalized into.
type Opportunity struct {
	ID                 string      `json:"id"`
	Title              string      `json:"title"`
	Country            string      `json:"country"`
	SubRegion          string      `json:"subRegion"`
	FundingAmount      string      `json:"fundingAmount"`
	Status             Status      `json:"status"`
	Deadline           string      `json:"deadline"`
	FundingInstrument  string      `json:"fundingInstrument"`
	FundingType        FundingType `json:"fundingType"`
	ThematicPrio       string      `json:"thematicPrio"`
	Summary            string      `json:"summary"`
	Eligibility        string      `json:"eligibility"`
	ApplicationProcess string      `json:"applicationProcess"`
	MipPrios           []string    `json:"mipPrios"`
	Documents          []Document  `json:"documents"`
	Contacts           []Contact   `json:"contacts"`
}

type ScrapingMetadata struct {
	ScrapedAt     string `json:"scraped_at"`
	PluginVersion string `json:"plugin_version"`
	DataQuality   string `json:"data_quality"`
}

// EnhancedOpportunity carries the scoring annotations and source pass-through
// fields on top of the canonical record.
type EnhancedOpportunity struct {
	Opportunity

	AISummary             string      `json:"ai_summary,omitempty"`
	AIThemes              []string    `json:"ai_themes,omitempty"`
	AfricanRelevanceScore *int        `json:"african_relevance_score,omitempty"`
	QualityScore          *int        `json:"quality_score,omitempty"`
	AIEnhanced            bool        `json:"ai_enhanced"`
	ScoreSource           ScoreSource `json:"score_source,omitempty"`

	CallID             string `json:"call_id,omitempty"`
	Programme          string `json:"programme,omitempty"`
	FrameworkProgramme string `json:"framework_programme,omitempty"`
	StatusCode         string `json:"status_code,omitempty"`
	Budget             string `json:"budget,omitempty"`

	SourcePlugin     string            `json:"source_plugin,omitempty"`
	ScrapingMetadata *ScrapingMetadata `json:"scraping_metadata,omitempty"`
}

// HasRelevanceScore reports whether a relevance score is attached.
func (o EnhancedOpportunity) HasRelevanceScore() bool {
	return o.AfricanRelevanceScore != nil
}

// RelevanceScore returns the relevance score or 0 when absent.
func (o EnhancedOpportunity) RelevanceScore() int {
	if o.AfricanRelevanceScore == nil {
		return 0
	}
	return *o.AfricanRelevanceScore
}

// Score returns a pointer to v clamped to [0,100].
func Score(v int) *int {
	v = ClampScore(v)
	return &v
}

func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
