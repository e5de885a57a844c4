// Package notify derives user notifications from a catalog snapshot and the
// stored notification settings.
package notify

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/david/funding-gateway/internal/ingest"
	"github.com/david/funding-gateway/internal/models"
	"github.com/david/funding-gateway/internal/settings"
)

type Kind string

const (
	KindNewOpportunity   Kind = "new_opportunity"
	KindDeadlineReminder Kind = "deadline_reminder"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

const reminderWindowDays = 7

type Notification struct {
	ID            string    `json:"id"`
	Type          Kind      `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Priority      Priority  `json:"priority"`
	OpportunityID string    `json:"opportunity_id"`
	ActionURL     string    `json:"action_url,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Generate returns the notifications for opps under s, high priority first.
// Ids depend only on the kind and opportunity, so repeated calls over the
// same snapshot produce the same set.
func Generate(opps []models.EnhancedOpportunity, s settings.NotificationSettings, now time.Time) []Notification {
	out := []Notification{}
	if !s.Enabled {
		return out
	}

	for _, o := range opps {
		if Matches(o, s) {
			out = append(out, Notification{
				ID:            fmt.Sprintf("%s_%s", KindNewOpportunity, o.ID),
				Type:          KindNewOpportunity,
				Title:         "New Funding Opportunity",
				Message:       fmt.Sprintf("%s - %s", o.Title, o.FundingAmount),
				Priority:      budgetPriority(o.FundingAmount),
				OpportunityID: o.ID,
				ActionURL:     actionURL(o),
				Timestamp:     now,
			})
		}

		if days, ok := daysUntil(o.Deadline, now); ok && days > 0 && days <= reminderWindowDays {
			p := PriorityMedium
			if days <= 3 {
				p = PriorityHigh
			}
			out = append(out, Notification{
				ID:            fmt.Sprintf("%s_%s", KindDeadlineReminder, o.ID),
				Type:          KindDeadlineReminder,
				Title:         "Deadline Reminder",
				Message:       fmt.Sprintf("%s deadline in %d days", o.Title, days),
				Priority:      p,
				OpportunityID: o.ID,
				ActionURL:     actionURL(o),
				Timestamp:     now,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})
	return out
}

// Matches reports whether o satisfies every criterion in s. Empty lists
// match anything.
func Matches(o models.EnhancedOpportunity, s settings.NotificationSettings) bool {
	if len(s.Countries) > 0 && !anyContains(s.Countries, o.Country, o.SubRegion) {
		return false
	}
	if len(s.ThematicPriorities) > 0 {
		themes := append([]string{o.ThematicPrio}, o.AIThemes...)
		if !anyContains(s.ThematicPriorities, themes...) {
			return false
		}
	}
	if len(s.FundingTypes) > 0 && !containsFold(s.FundingTypes, string(o.FundingType)) {
		return false
	}
	if amount, ok := ingest.ParseBudgetAmount(o.FundingAmount); ok && amount < s.BudgetThreshold {
		return false
	}
	if len(s.StatusFilter) > 0 {
		matched := false
		for _, st := range s.StatusFilter {
			if models.StatusEquals(o.Status, st) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// anyContains reports whether some value contains some needle, ignoring case.
func anyContains(needles []string, values ...string) bool {
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), n) {
				return true
			}
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}

func budgetPriority(amount string) Priority {
	v, ok := ingest.ParseBudgetAmount(amount)
	switch {
	case ok && v > 5_000_000:
		return PriorityHigh
	case ok && v > 1_000_000:
		return PriorityMedium
	}
	return PriorityLow
}

// daysUntil rounds the time left before deadline up to whole days.
func daysUntil(deadline string, now time.Time) (int, bool) {
	t, ok := ingest.ParseDeadline(deadline)
	if !ok {
		return 0, false
	}
	return int(math.Ceil(t.Sub(now).Hours() / 24)), true
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

func actionURL(o models.EnhancedOpportunity) string {
	for _, d := range o.Documents {
		if d.URL != "" {
			return d.URL
		}
	}
	return ""
}
