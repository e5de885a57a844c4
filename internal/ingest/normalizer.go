package ingest

import (
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/david/funding-gateway/internal/models"
)

// Normalizer converts raw source records into canonical opportunities.
type Normalizer struct {
	Adapters *AdapterRegistry
	Quality  QualityFilter
}

func NewNormalizer(quality QualityFilter) *Normalizer {
	return &Normalizer{
		Adapters: DefaultAdapters,
		Quality:  quality,
	}
}

// Normalize maps raw onto the canonical shape using the adapter for kind.
// It returns false when the record fails the quality filter.
func (n *Normalizer) Normalize(raw Record, kind SourceKind) (models.EnhancedOpportunity, bool) {
	if !n.Quality.IsAcceptable(raw) {
		return models.EnhancedOpportunity{}, false
	}

	adapter, err := n.Adapters.Get(kind)
	if err != nil {
		log.Printf("[Normalizer] %v, using legacy mapping", err)
		adapter, _ = n.Adapters.Get(KindLegacy)
	}

	return FromRaw(raw, adapter), true
}

// NormalizeAll normalizes every record and reports how many were dropped.
func (n *Normalizer) NormalizeAll(raws []Record, kind SourceKind) ([]models.EnhancedOpportunity, int) {
	out := make([]models.EnhancedOpportunity, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		opp, ok := n.Normalize(raw, kind)
		if !ok {
			dropped++
			continue
		}
		out = append(out, opp)
	}
	return out, dropped
}

// FromRaw builds the canonical record for raw. Every required string is
// populated; the result depends only on raw and the adapter.
func FromRaw(raw Record, a Adapter) models.EnhancedOpportunity {
	text := func(canonical string) string {
		spec, ok := a.Spec(canonical)
		if !ok {
			return ""
		}
		v, found := lookupKeys(raw, spec.Keys)
		if !found {
			return spec.Default
		}
		var s string
		if spec.Join {
			s = strings.Join(stringSlice(v), ", ")
		} else {
			s, _ = stringValue(v)
		}
		s = cleanText(s)
		if isPlaceholder(s) {
			return spec.Default
		}
		return s
	}

	country := text(FieldCountry)

	var statusCandidates []string
	if spec, ok := a.Spec(FieldStatus); ok {
		for _, k := range spec.Keys {
			if s, ok := stringValue(raw[k]); ok {
				statusCandidates = append(statusCandidates, s)
			}
		}
	}

	var deadline any
	if v, ok := a.Lookup(raw, FieldDeadline); ok {
		deadline = v
	}

	fundingTypeRaw := text(FieldFundingType)

	opp := models.Opportunity{
		Title:              text(FieldTitle),
		Country:            country,
		SubRegion:          SubRegion(country),
		FundingAmount:      fundingAmount(raw, a),
		Status:             normalizeStatus(statusCandidates...),
		Deadline:           FormatDeadline(deadline),
		FundingInstrument:  text(FieldFundingInstrument),
		FundingType:        normalizeFundingType(fundingTypeRaw),
		ThematicPrio:       text(FieldThematicPrio),
		Summary:            text(FieldSummary),
		Eligibility:        text(FieldEligibility),
		ApplicationProcess: text(FieldApplicationProcess),
		MipPrios:           []string{},
		Documents:          extractDocuments(raw, a),
		Contacts:           extractContacts(raw),
	}
	if v, ok := a.Lookup(raw, FieldMipPrios); ok {
		if prios := stringSlice(v); len(prios) > 0 {
			opp.MipPrios = prios
		}
	}
	opp.ID = deriveID(raw, a)

	enh := models.EnhancedOpportunity{Opportunity: opp}

	if s, ok := stringValue(raw["ai_summary"]); ok && !isPlaceholder(s) {
		enh.AISummary = cleanText(s)
	}
	if v, ok := lookupKeys(raw, []string{"ai_themes", "themes"}); ok {
		enh.AIThemes = stringSlice(v)
	}
	if v, ok := numberValue(raw["african_relevance_score"]); ok {
		enh.AfricanRelevanceScore = models.Score(int(math.Round(v)))
	}
	if v, ok := numberValue(raw["quality_score"]); ok {
		enh.QualityScore = models.Score(int(math.Round(v)))
	}
	enh.AIEnhanced = boolValue(raw["ai_enhanced"])

	enh.CallID = firstString(raw, "call_id", "identifier")
	enh.Programme = firstString(raw, "programme", "framework_programme")
	enh.FrameworkProgramme = firstString(raw, "framework_programme")
	enh.StatusCode = firstString(raw, "status_code")
	enh.Budget = firstString(raw, "budget")
	enh.SourcePlugin = firstString(raw, "source_plugin", "plugin_name")

	meta := &models.ScrapingMetadata{
		ScrapedAt:     firstString(raw, "scraped_at"),
		PluginVersion: firstString(raw, "plugin_version"),
		DataQuality:   AssessDataQuality(raw),
	}
	if nested, ok := raw["scraping_metadata"].(map[string]any); ok {
		if meta.ScrapedAt == "" {
			meta.ScrapedAt = firstString(Record(nested), "scraped_at")
		}
		if meta.PluginVersion == "" {
			meta.PluginVersion = firstString(Record(nested), "plugin_version")
		}
	}
	if meta.PluginVersion == "" {
		meta.PluginVersion = "1.0.0"
	}
	enh.ScrapingMetadata = meta

	return enh
}

func fundingAmount(raw Record, a Adapter) string {
	spec, ok := a.Spec(FieldFundingAmount)
	if !ok {
		return ""
	}
	v, found := lookupKeys(raw, spec.Keys)
	if !found {
		return spec.Default
	}
	if n, isNum := v.(float64); isNum {
		return formatEuro(n)
	}
	s, _ := stringValue(v)
	s = cleanText(s)
	if isPlaceholder(s) {
		return spec.Default
	}
	// bare numeric strings from the EU API
	if n, err := parseNumberStrict(s); err == nil {
		return formatEuro(n)
	}
	return s
}

func parseNumberStrict(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func extractDocuments(raw Record, a Adapter) []models.Document {
	var docs []models.Document
	if list, ok := raw["documents"].([]any); ok {
		for _, item := range list {
			switch d := item.(type) {
			case map[string]any:
				name := firstString(Record(d), "name", "title")
				url := firstString(Record(d), "url", "link", "href")
				if name == "" && url == "" {
					continue
				}
				if name == "" {
					name = "Document"
				}
				if url == "" {
					url = "#"
				}
				docs = append(docs, models.Document{Name: name, URL: url})
			case string:
				if !isPlaceholder(d) {
					docs = append(docs, models.Document{Name: "Document", URL: d})
				}
			}
		}
	}
	if len(docs) > 0 {
		return docs
	}

	if v, ok := a.Lookup(raw, FieldSourceURL); ok {
		if s, _ := stringValue(v); s != "" {
			docs = append(docs, models.Document{Name: "View Source", URL: s})
		}
	}
	if v, ok := a.Lookup(raw, FieldCallURL); ok {
		if s, _ := stringValue(v); s != "" {
			docs = append(docs, models.Document{Name: "Call Details", URL: s})
		}
	}
	if len(docs) == 0 {
		docs = []models.Document{{Name: "No documents available", URL: "#"}}
	}
	return docs
}

func extractContacts(raw Record) []models.Contact {
	contacts := []models.Contact{}
	list, ok := raw["contacts"].([]any)
	if !ok {
		return contacts
	}
	for _, item := range list {
		c, ok := item.(map[string]any)
		if !ok {
			continue
		}
		contact := models.Contact{
			Type:    firstString(Record(c), "type"),
			Name:    firstString(Record(c), "name"),
			Details: firstString(Record(c), "details", "email"),
		}
		if contact.Name == "" && contact.Details == "" {
			continue
		}
		contacts = append(contacts, contact)
	}
	return contacts
}

// deriveID prefers a source identifier and otherwise hashes the adapter's
// hash keys, so repeated fetches of the same record keep the same id.
func deriveID(raw Record, a Adapter) string {
	if id := firstString(raw, a.IDKeys...); id != "" {
		return id
	}
	basis := firstString(raw, a.HashKeys...)
	return a.HashPrefix + absHash(hashString(basis))
}

// firstString returns the first non-placeholder string value among keys.
func firstString(raw Record, keys ...string) string {
	for _, k := range keys {
		if s, ok := stringValue(raw[k]); ok && !isPlaceholder(s) {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// AssessDataQuality grades a raw record High, Medium or Basic by counting
// the informative fields it carries.
func AssessDataQuality(raw Record) string {
	score := 0
	if firstString(raw, "title") != "" {
		score++
	}
	if firstString(raw, "description", "ai_summary", "summary") != "" {
		score++
	}
	if firstString(raw, "deadline", "submission_deadline") != "" {
		score++
	}
	if firstString(raw, "budget", "funding_amount", "fundingAmount") != "" {
		score++
	}
	if boolValue(raw["ai_enhanced"]) {
		score++
	}
	switch {
	case score >= 4:
		return "High"
	case score >= 2:
		return "Medium"
	}
	return "Basic"
}
