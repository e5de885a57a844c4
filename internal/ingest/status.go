package ingest

import (
	"strings"

	"github.com/david/funding-gateway/internal/models"
)

// EU Funding & Tenders portal status codes.
var euStatusCodes = map[string]models.Status{
	"31094501": models.StatusOpen,
	"31094502": models.StatusUpcoming,
	"31094503": models.StatusClosed,
}

// normalizeStatus maps free-text or coded statuses onto the three canonical
// values. Candidates are tried in order; a recognised EU code in any of them
// wins over text heuristics.
func normalizeStatus(candidates ...string) models.Status {
	for _, c := range candidates {
		if st, ok := euStatusCodes[strings.TrimSpace(c)]; ok {
			return st
		}
	}
	for _, c := range candidates {
		if isPlaceholder(c) {
			continue
		}
		lower := strings.ToLower(c)
		switch {
		case strings.Contains(lower, "closed") || strings.Contains(lower, "ended"):
			return models.StatusClosed
		case strings.Contains(lower, "upcoming") || strings.Contains(lower, "soon") || strings.Contains(lower, "forthcoming"):
			return models.StatusUpcoming
		}
		return models.StatusOpen
	}
	return models.StatusOpen
}

func normalizeFundingType(candidates ...string) models.FundingType {
	for _, c := range candidates {
		lower := strings.ToLower(c)
		if strings.Contains(lower, "humanitarian") || strings.Contains(lower, "emergency") || strings.Contains(lower, "crisis") {
			return models.FundingHumanitarian
		}
	}
	return models.FundingDevelopment
}
