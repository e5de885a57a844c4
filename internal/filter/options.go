package filter

import (
	"strings"

	"github.com/david/funding-gateway/internal/ingest"
	"github.com/david/funding-gateway/internal/models"
)

// BudgetRange is a preset amount bracket. A zero Max means no upper bound.
type BudgetRange struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max,omitempty"`
}

// BudgetRanges are the brackets offered by the dashboard.
var BudgetRanges = []BudgetRange{
	{Label: "Under €100,000", Min: 0, Max: 100_000},
	{Label: "€100,000 - €500,000", Min: 100_000, Max: 500_000},
	{Label: "€500,000 - €1M", Min: 500_000, Max: 1_000_000},
	{Label: "€1M - €5M", Min: 1_000_000, Max: 5_000_000},
	{Label: "€5M - €10M", Min: 5_000_000, Max: 10_000_000},
	{Label: "Over €10M", Min: 10_000_000},
}

// FilterOptions lists the values a client can filter on.
type FilterOptions struct {
	Countries    []string      `json:"countries"`
	SubRegions   []string      `json:"subregions"`
	FundingTypes []string      `json:"funding_types"`
	Statuses     []string      `json:"statuses"`
	Themes       []string      `json:"themes"`
	Instruments  []string      `json:"instruments"`
	BudgetRanges []BudgetRange `json:"budget_ranges"`
}

// Options collects the distinct values present in opps, sorted.
func Options(opps []models.EnhancedOpportunity) FilterOptions {
	countries := newSet()
	subRegions := newSet()
	fundingTypes := newSet()
	statuses := newSet()
	themes := newSet()
	instruments := newSet()

	for _, o := range opps {
		countries.add(o.Country)
		subRegions.add(o.SubRegion)
		fundingTypes.add(string(o.FundingType))
		statuses.add(string(o.Status))
		instruments.add(o.FundingInstrument)
		for _, t := range o.AIThemes {
			themes.add(t)
		}
	}
	// the African sub-regions are always offered
	for _, r := range ingest.SubRegions() {
		subRegions.add(r)
	}

	return FilterOptions{
		Countries:    countries.sorted(),
		SubRegions:   subRegions.sorted(),
		FundingTypes: fundingTypes.sorted(),
		Statuses:     statuses.sorted(),
		Themes:       themes.sorted(),
		Instruments:  instruments.sorted(),
		BudgetRanges: append([]BudgetRange(nil), BudgetRanges...),
	}
}

// set keeps the first spelling of each case-insensitive value.
type set struct {
	seen   map[string]struct{}
	values []string
}

func newSet() *set {
	return &set{seen: make(map[string]struct{})}
}

func (s *set) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	k := strings.ToLower(v)
	if _, ok := s.seen[k]; ok {
		return
	}
	s.seen[k] = struct{}{}
	s.values = append(s.values, v)
}

func (s *set) sorted() []string {
	out := append([]string{}, s.values...)
	sortStrings(out)
	return out
}
