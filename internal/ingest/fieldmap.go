package ingest

import (
	"fmt"
	"strings"
	"sync"
)

// Canonical field names shared by every adapter table.
const (
	FieldTitle              = "title"
	FieldCountry            = "country"
	FieldFundingAmount      = "fundingAmount"
	FieldStatus             = "status"
	FieldDeadline           = "deadline"
	FieldFundingInstrument  = "fundingInstrument"
	FieldFundingType        = "fundingType"
	FieldThematicPrio       = "thematicPrio"
	FieldSummary            = "summary"
	FieldEligibility        = "eligibility"
	FieldApplicationProcess = "applicationProcess"
	FieldMipPrios           = "mipPrios"
	FieldSourceURL          = "sourceURL"
	FieldCallURL            = "callURL"
)

// FieldSpec maps an ordered list of source keys onto one canonical field.
// The first key holding a non-placeholder value wins; Default applies when
// none does. Join renders list values as a comma separated string instead
// of taking their first element.
type FieldSpec struct {
	Canonical string
	Keys      []string
	Default   string
	Join      bool
}

// Adapter is the declarative mapping for one source variant.
type Adapter struct {
	Kind SourceKind
	// IDKeys are tried in order for a source supplied identifier.
	IDKeys []string
	// HashKeys feed the deterministic id when no identifier is present.
	HashKeys   []string
	HashPrefix string
	Fields     []FieldSpec
}

// Spec returns the mapping for a canonical field.
func (a Adapter) Spec(canonical string) (FieldSpec, bool) {
	for _, f := range a.Fields {
		if f.Canonical == canonical {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Lookup returns the first usable raw value for a canonical field.
func (a Adapter) Lookup(raw Record, canonical string) (any, bool) {
	spec, ok := a.Spec(canonical)
	if !ok {
		return nil, false
	}
	return lookupKeys(raw, spec.Keys)
}

func lookupKeys(raw Record, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || isPlaceholderValue(v) {
			continue
		}
		if list, isList := v.([]any); isList && len(list) == 0 {
			continue
		}
		return v, true
	}
	return nil, false
}

// AdapterRegistry maps source kinds to their field tables.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[SourceKind]Adapter
	defaults map[string]struct{}
}

func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: make(map[SourceKind]Adapter),
		defaults: make(map[string]struct{}),
	}
}

func (r *AdapterRegistry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Kind] = a
	for _, f := range a.Fields {
		if f.Default != "" {
			r.defaults[strings.ToLower(f.Default)] = struct{}{}
		}
	}
}

func (r *AdapterRegistry) Get(kind SourceKind) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[kind]
	if !ok {
		return Adapter{}, fmt.Errorf("adapter not found: %s", kind)
	}
	return a, nil
}

// IsDefault reports whether s is one of the registered fallback strings.
func (r *AdapterRegistry) IsDefault(s string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defaults[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// DefaultAdapters holds the tables for every known source variant.
var DefaultAdapters = NewAdapterRegistry()

// isDefaultValue reports whether s is a fallback string rather than source data.
func isDefaultValue(s string) bool {
	if strings.EqualFold(strings.TrimSpace(s), "No documents available") {
		return true
	}
	return DefaultAdapters.IsDefault(s)
}

var enhancedFields = []FieldSpec{
	{Canonical: FieldTitle, Keys: []string{"title"}, Default: "Funding Opportunity"},
	{Canonical: FieldCountry, Keys: []string{"country", "target_countries", "eligible_countries", "geographical_focus"}, Default: "Multi-country"},
	{Canonical: FieldFundingAmount, Keys: []string{"budget", "funding_amount", "total_budget", "amount", "fundingAmount"}, Default: "Amount not specified"},
	{Canonical: FieldStatus, Keys: []string{"status_code", "status"}},
	{Canonical: FieldDeadline, Keys: []string{"deadline", "submission_deadline", "deadlineDate"}},
	{Canonical: FieldFundingInstrument, Keys: []string{"funding_instrument", "programme", "framework_programme"}, Default: "EU Programme"},
	{Canonical: FieldFundingType, Keys: []string{"funding_type", "fundingType"}},
	{Canonical: FieldThematicPrio, Keys: []string{"ai_themes", "themes", "thematic_priority", "thematicPrio"}, Default: "General Development", Join: true},
	{Canonical: FieldSummary, Keys: []string{"ai_summary", "description", "summary"}, Default: "No description available"},
	{Canonical: FieldEligibility, Keys: []string{"eligibility"}, Default: "Check source for eligibility requirements"},
	{Canonical: FieldApplicationProcess, Keys: []string{"application_process", "applicationProcess"}, Default: "Please visit the source website for application details"},
	{Canonical: FieldMipPrios, Keys: []string{"ai_themes", "mipPrios"}},
	{Canonical: FieldSourceURL, Keys: []string{"source_url", "url"}},
	{Canonical: FieldCallURL, Keys: []string{"call_url"}},
}

var legacyFields = []FieldSpec{
	{Canonical: FieldTitle, Keys: []string{"title"}, Default: "Untitled Opportunity"},
	{Canonical: FieldCountry, Keys: []string{"country"}, Default: "Not specified"},
	{Canonical: FieldFundingAmount, Keys: []string{"fundingAmount", "amount", "funding_amount"}, Default: "Not specified"},
	{Canonical: FieldStatus, Keys: []string{"status", "status_code"}},
	{Canonical: FieldDeadline, Keys: []string{"deadline"}},
	{Canonical: FieldFundingInstrument, Keys: []string{"fundingInstrument", "funding_instrument"}, Default: "Not specified"},
	{Canonical: FieldFundingType, Keys: []string{"fundingType", "funding_type"}},
	{Canonical: FieldThematicPrio, Keys: []string{"thematicPrio", "thematic_priority"}, Default: "Not specified", Join: true},
	{Canonical: FieldSummary, Keys: []string{"description", "summary"}, Default: "No description available"},
	{Canonical: FieldEligibility, Keys: []string{"eligibility"}, Default: "No eligibility information available"},
	{Canonical: FieldApplicationProcess, Keys: []string{"applicationProcess", "application_process"}, Default: "Please check the source website for application procedures"},
	{Canonical: FieldMipPrios, Keys: []string{"mipPrios"}},
	{Canonical: FieldSourceURL, Keys: []string{"source_url"}},
}

var mockFields = []FieldSpec{
	{Canonical: FieldTitle, Keys: []string{"title"}, Default: "Untitled Opportunity"},
	{Canonical: FieldCountry, Keys: []string{"country"}, Default: "Not specified"},
	{Canonical: FieldFundingAmount, Keys: []string{"fundingAmount"}, Default: "Not specified"},
	{Canonical: FieldStatus, Keys: []string{"status"}},
	{Canonical: FieldDeadline, Keys: []string{"deadline"}},
	{Canonical: FieldFundingInstrument, Keys: []string{"fundingInstrument"}, Default: "Not specified"},
	{Canonical: FieldFundingType, Keys: []string{"fundingType"}},
	{Canonical: FieldThematicPrio, Keys: []string{"thematicPrio"}, Default: "Not specified", Join: true},
	{Canonical: FieldSummary, Keys: []string{"summary", "description"}, Default: "No description available"},
	{Canonical: FieldEligibility, Keys: []string{"eligibility"}, Default: "No eligibility information available"},
	{Canonical: FieldApplicationProcess, Keys: []string{"applicationProcess"}, Default: "Please check the source website for application procedures"},
	{Canonical: FieldMipPrios, Keys: []string{"mipPrios"}},
	{Canonical: FieldSourceURL, Keys: []string{"source_url"}},
}

func init() {
	DefaultAdapters.Register(Adapter{
		Kind:       KindEnhanced,
		IDKeys:     []string{"id", "call_id", "identifier"},
		HashKeys:   []string{"title", "source_url"},
		HashPrefix: "opp_",
		Fields:     enhancedFields,
	})
	DefaultAdapters.Register(Adapter{
		Kind:       KindEU,
		IDKeys:     []string{"call_id", "identifier", "id"},
		HashKeys:   []string{"title", "source_url"},
		HashPrefix: "opp_",
		Fields:     enhancedFields,
	})
	DefaultAdapters.Register(Adapter{
		Kind:       KindLegacy,
		IDKeys:     []string{"id"},
		HashKeys:   []string{"source_url", "title"},
		HashPrefix: "id_",
		Fields:     legacyFields,
	})
	DefaultAdapters.Register(Adapter{
		Kind:       KindMock,
		IDKeys:     []string{"id"},
		HashKeys:   []string{"source_url", "title"},
		HashPrefix: "id_",
		Fields:     mockFields,
	})
	DefaultAdapters.Register(Adapter{
		Kind:       KindListing,
		IDKeys:     []string{"id"},
		HashKeys:   []string{"title", "source_url"},
		HashPrefix: "opp_",
		Fields:     enhancedFields,
	})
}
