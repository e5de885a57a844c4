// Package filter implements the conjunctive filters, ordering and paging
// applied to catalog snapshots. Every function returns a new slice and
// leaves its input untouched.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/david/funding-gateway/internal/ingest"
	"github.com/david/funding-gateway/internal/models"
)

// All is the UI value meaning "no constraint".
const All = "all"

// Criteria is the set of filters a client selected. Zero values and "all"
// leave a field unconstrained.
type Criteria struct {
	Query          string
	Country        string
	FundingType    string
	Status         string
	ThematicPrio   string
	SubRegion      string
	MinRelevance   int
	AIEnhancedOnly bool

	// BudgetMin and BudgetMax bound the parsed funding amount. Records
	// whose amount cannot be parsed are kept.
	BudgetMin float64
	BudgetMax float64

	// DeadlineFrom and DeadlineTo bound the deadline date, inclusive.
	// Records without a deadline are excluded once either bound is set.
	DeadlineFrom time.Time
	DeadlineTo   time.Time
}

var filterKeyNamespace = uuid.MustParse("6f1c2b0e-4a57-4d8e-9a43-0c7e5d1f2a90")

// Key identifies the criteria. Equal criteria always produce the same key.
func (c Criteria) Key() string {
	canonical := fmt.Sprintf("q=%s|c=%s|ft=%s|s=%s|t=%s|sr=%s|mr=%d|ai=%t|bmin=%g|bmax=%g|df=%s|dt=%s",
		norm(c.Query), norm(c.Country), norm(c.FundingType), norm(c.Status),
		norm(c.ThematicPrio), norm(c.SubRegion), c.MinRelevance, c.AIEnhancedOnly,
		c.BudgetMin, c.BudgetMax, dateKey(c.DeadlineFrom), dateKey(c.DeadlineTo))
	return uuid.NewSHA1(filterKeyNamespace, []byte(canonical)).String()
}

// Apply returns the records matching every criterion, in input order.
func Apply(opps []models.EnhancedOpportunity, c Criteria) []models.EnhancedOpportunity {
	out := make([]models.EnhancedOpportunity, 0, len(opps))
	for _, o := range opps {
		if c.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// Match reports whether o satisfies every criterion.
func (c Criteria) Match(o models.EnhancedOpportunity) bool {
	if q := norm(c.Query); q != "" && !matchesQuery(o, q) {
		return false
	}
	if v := norm(c.Country); v != "" && !strings.EqualFold(o.Country, v) {
		return false
	}
	if v := norm(c.FundingType); v != "" && !strings.EqualFold(string(o.FundingType), v) {
		return false
	}
	if v := norm(c.Status); v != "" && !models.StatusEquals(o.Status, v) {
		return false
	}
	if v := norm(c.ThematicPrio); v != "" && !strings.Contains(strings.ToLower(o.ThematicPrio), v) {
		return false
	}
	if v := norm(c.SubRegion); v != "" && !strings.EqualFold(o.SubRegion, v) {
		return false
	}
	if c.MinRelevance > 0 && (!o.HasRelevanceScore() || o.RelevanceScore() < c.MinRelevance) {
		return false
	}
	if c.AIEnhancedOnly && !o.AIEnhanced {
		return false
	}
	if !c.matchBudget(o) {
		return false
	}
	return c.matchDeadline(o)
}

func (c Criteria) matchBudget(o models.EnhancedOpportunity) bool {
	if c.BudgetMin <= 0 && c.BudgetMax <= 0 {
		return true
	}
	lo, hi, ok := ingest.ParseAmountRange(o.FundingAmount)
	if !ok {
		return true
	}
	// any overlap between the record's range and the requested one
	if c.BudgetMin > 0 && hi < c.BudgetMin {
		return false
	}
	if c.BudgetMax > 0 && lo > c.BudgetMax {
		return false
	}
	return true
}

func (c Criteria) matchDeadline(o models.EnhancedOpportunity) bool {
	if c.DeadlineFrom.IsZero() && c.DeadlineTo.IsZero() {
		return true
	}
	d, ok := ingest.ParseDeadline(o.Deadline)
	if !ok {
		return false
	}
	day := dateKey(d)
	if !c.DeadlineFrom.IsZero() && day < dateKey(c.DeadlineFrom) {
		return false
	}
	if !c.DeadlineTo.IsZero() && day > dateKey(c.DeadlineTo) {
		return false
	}
	return true
}

func matchesQuery(o models.EnhancedOpportunity, q string) bool {
	fields := []string{o.Title, o.Summary, o.AISummary, o.Country, string(o.FundingType)}
	fields = append(fields, o.AIThemes...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// norm lowercases and trims a criterion; "all" becomes empty.
func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == All {
		return ""
	}
	return s
}

func dateKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
