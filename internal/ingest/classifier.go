package ingest

import "strings"

// ResponseQualityClassifier decides whether a successful source response
// carries real opportunities or generic placeholder content.
type ResponseQualityClassifier interface {
	IsPlaceholderContent(records []Record) bool
}

// BoilerplateClassifier flags responses scraped from EU policy landing pages
// instead of actual calls: most titles match known page boilerplate, or no
// record carries a funding amount.
type BoilerplateClassifier struct {
	TitlePatterns []string
	AmountKeys    []string
	// MinBoilerplateShare is the fraction of boilerplate titles that marks
	// the whole response as placeholder content.
	MinBoilerplateShare float64
}

var defaultBoilerplateTitles = []string{
	"international partnerships",
	"funding & tenders",
	"funding and tenders",
	"eu funding programmes",
	"calls for proposals",
	"global europe",
	"european commission",
	"cookies policy",
	"legal notice",
	"about the european union",
	"news and media",
	"search for funding",
}

func NewBoilerplateClassifier() *BoilerplateClassifier {
	return &BoilerplateClassifier{
		TitlePatterns:       defaultBoilerplateTitles,
		AmountKeys:          []string{"budget", "funding_amount", "total_budget", "amount", "fundingAmount"},
		MinBoilerplateShare: 0.5,
	}
}

func (c *BoilerplateClassifier) IsPlaceholderContent(records []Record) bool {
	if len(records) == 0 {
		return false
	}

	boilerplate := 0
	withAmount := 0
	for _, r := range records {
		if c.isBoilerplateTitle(firstString(r, "title")) {
			boilerplate++
		}
		if _, ok := lookupKeys(r, c.AmountKeys); ok {
			withAmount++
		}
	}

	if float64(boilerplate)/float64(len(records)) >= c.MinBoilerplateShare {
		return true
	}
	return withAmount == 0
}

func (c *BoilerplateClassifier) isBoilerplateTitle(title string) bool {
	t := strings.ToLower(normalizeSpace(title))
	if t == "" {
		return false
	}
	// page titles usually carry a site suffix: "Calls for proposals | European Commission"
	for _, sep := range []string{" | ", " - "} {
		if i := strings.Index(t, sep); i > 0 {
			t = t[:i]
		}
	}
	for _, p := range c.TitlePatterns {
		if t == p {
			return true
		}
	}
	return false
}
