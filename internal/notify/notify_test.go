package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/david/funding-gateway/internal/models"
	"github.com/david/funding-gateway/internal/settings"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func opp(id, country, amount, deadline string, status models.Status) models.EnhancedOpportunity {
	return models.EnhancedOpportunity{Opportunity: models.Opportunity{
		ID:            id,
		Title:         "Call " + id,
		Country:       country,
		SubRegion:     "West Africa",
		FundingAmount: amount,
		Status:        status,
		Deadline:      deadline,
		FundingType:   models.FundingDevelopment,
		ThematicPrio:  "Climate Resilience",
	}}
}

func TestGenerate_Disabled(t *testing.T) {
	s := settings.Defaults()
	s.Enabled = false
	got := Generate([]models.EnhancedOpportunity{opp("1", "Ghana", "€6M", "2026-10-16", models.StatusOpen)}, s, testNow)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGenerate_NewOpportunityPriority(t *testing.T) {
	opps := []models.EnhancedOpportunity{
		opp("low", "Ghana", "€500,000", models.NoDeadline, models.StatusOpen),
		opp("high", "Ghana", "€6M", models.NoDeadline, models.StatusOpen),
		opp("medium", "Ghana", "€2,500,000", models.NoDeadline, models.StatusOpen),
	}
	got := Generate(opps, settings.Defaults(), testNow)
	require.Len(t, got, 3)

	assert.Equal(t, "new_opportunity_high", got[0].ID)
	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, "new_opportunity_medium", got[1].ID)
	assert.Equal(t, "new_opportunity_low", got[2].ID)
	assert.Equal(t, "Call high - €6M", got[0].Message)
}

func TestGenerate_DeadlineReminders(t *testing.T) {
	s := settings.Defaults()
	s.StatusFilter = []string{"Closed"} // only reminders

	opps := []models.EnhancedOpportunity{
		opp("soon", "Ghana", "€6M", "2026-10-16", models.StatusOpen),
		opp("week", "Ghana", "€6M", "2026-10-20", models.StatusOpen),
		opp("later", "Ghana", "€6M", "2026-10-30", models.StatusOpen),
		opp("past", "Ghana", "€6M", "2026-10-01", models.StatusOpen),
		opp("none", "Ghana", "€6M", models.NoDeadline, models.StatusOpen),
	}
	got := Generate(opps, s, testNow)
	require.Len(t, got, 2)

	assert.Equal(t, "deadline_reminder_soon", got[0].ID)
	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, "Call soon deadline in 3 days", got[0].Message)
	assert.Equal(t, "deadline_reminder_week", got[1].ID)
	assert.Equal(t, PriorityMedium, got[1].Priority)
}

func TestGenerate_Deterministic(t *testing.T) {
	opps := []models.EnhancedOpportunity{
		opp("a", "Ghana", "€2M", "2026-10-18", models.StatusOpen),
		opp("b", "Kenya", "€7M", "2026-10-15", models.StatusUpcoming),
	}
	first := Generate(opps, settings.Defaults(), testNow)
	second := Generate(opps, settings.Defaults(), testNow)
	assert.Equal(t, first, second)
}

func TestMatches(t *testing.T) {
	base := opp("1", "Senegal", "€2,000,000", "2026-12-01", models.StatusUpcoming)

	tests := []struct {
		name   string
		mutate func(*settings.NotificationSettings)
		want   bool
	}{
		{"defaults", func(*settings.NotificationSettings) {}, true},
		{"country substring", func(s *settings.NotificationSettings) { s.Countries = []string{"sene"} }, true},
		{"sub-region", func(s *settings.NotificationSettings) { s.Countries = []string{"West Africa"} }, true},
		{"other country", func(s *settings.NotificationSettings) { s.Countries = []string{"Kenya"} }, false},
		{"theme", func(s *settings.NotificationSettings) { s.ThematicPriorities = []string{"climate"} }, true},
		{"other theme", func(s *settings.NotificationSettings) { s.ThematicPriorities = []string{"Health"} }, false},
		{"funding type", func(s *settings.NotificationSettings) { s.FundingTypes = []string{"Development"} }, true},
		{"other funding type", func(s *settings.NotificationSettings) { s.FundingTypes = []string{"Humanitarian"} }, false},
		{"below threshold", func(s *settings.NotificationSettings) { s.BudgetThreshold = 3_000_000 }, false},
		{"status forthcoming alias", func(s *settings.NotificationSettings) { s.StatusFilter = []string{"Forthcoming"} }, true},
		{"status closed", func(s *settings.NotificationSettings) { s.StatusFilter = []string{"Closed"} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings.Defaults()
			tt.mutate(&s)
			assert.Equal(t, tt.want, Matches(base, s))
		})
	}
}

func TestMatches_UnparseableBudgetPasses(t *testing.T) {
	s := settings.Defaults()
	s.BudgetThreshold = 10_000_000
	o := opp("1", "Ghana", "Contact for details", models.NoDeadline, models.StatusOpen)
	assert.True(t, Matches(o, s))
}
