package ingest

import "strings"

var subRegionCountries = []struct {
	region    string
	countries []string
}{
	{"West Africa", []string{"benin", "burkina faso", "cape verde", "cote d'ivoire", "côte d'ivoire", "ivory coast", "gambia", "ghana", "guinea", "guinea-bissau", "liberia", "mali", "mauritania", "niger", "nigeria", "senegal", "sierra leone", "togo"}},
	{"East Africa", []string{"burundi", "comoros", "djibouti", "eritrea", "ethiopia", "kenya", "madagascar", "malawi", "mauritius", "mozambique", "rwanda", "seychelles", "somalia", "south sudan", "sudan", "tanzania", "uganda", "zambia", "zimbabwe"}},
	{"Southern Africa", []string{"angola", "botswana", "eswatini", "lesotho", "namibia", "south africa", "swaziland"}},
	{"Central Africa", []string{"cameroon", "central african republic", "chad", "democratic republic of congo", "democratic republic of the congo", "drc", "equatorial guinea", "gabon", "republic of congo", "sao tome and principe"}},
	{"North Africa", []string{"algeria", "egypt", "libya", "morocco", "tunisia"}},
}

// SubRegion derives the African sub-region for a country label. The longest
// matching country name wins so "Equatorial Guinea" is not read as "Guinea".
func SubRegion(country string) string {
	lower := strings.ToLower(country)
	best, bestLen := "", 0
	for _, r := range subRegionCountries {
		for _, c := range r.countries {
			if len(c) > bestLen && strings.Contains(lower, c) {
				best, bestLen = r.region, len(c)
			}
		}
	}
	if best != "" {
		return best
	}
	if strings.Contains(country, "EU") || strings.Contains(lower, "europe") {
		return "Europe"
	}
	return "Africa"
}

// SubRegions lists the African sub-regions in display order.
func SubRegions() []string {
	out := make([]string, 0, len(subRegionCountries))
	for _, r := range subRegionCountries {
		out = append(out, r.region)
	}
	return out
}
