package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/david/funding-gateway/internal/metrics"
	"github.com/david/funding-gateway/internal/models"
)

// ErrSourcesExhausted is returned when no source, static data included,
// produced any opportunity.
var ErrSourcesExhausted = errors.New("all opportunity sources exhausted")

// Branch names the step of the fallback chain that served a result.
type Branch string

const (
	BranchMock            Branch = "mock"
	BranchEnhanced        Branch = "enhanced"
	BranchCuratedFallback Branch = "curated_fallback"
	BranchLegacy          Branch = "legacy"
	BranchMockFallback    Branch = "mock_fallback"
)

// Attempt outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeEmpty       = "empty"
	OutcomeInvalid     = "invalid"
	OutcomePlaceholder = "placeholder"
	OutcomeFresh       = "fresh"
	OutcomeStale       = "stale"
)

// Attempt records one call made while walking the chain.
type Attempt struct {
	Endpoint string        `json:"endpoint"`
	Outcome  string        `json:"outcome"`
	Err      string        `json:"error,omitempty"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration_ns"`
}

// FetchResult is the outcome of one aggregation run.
type FetchResult struct {
	RunID         string                       `json:"run_id"`
	Branch        Branch                       `json:"branch"`
	Opportunities []models.EnhancedOpportunity `json:"-"`
	Attempts      []Attempt                    `json:"attempts"`
	Dropped       int                          `json:"dropped"`
	FetchedAt     time.Time                    `json:"fetched_at"`
}

// AggregatorConfig tunes the fallback chain.
type AggregatorConfig struct {
	UseMockData bool
	// MockDelay simulates network latency when serving mock data.
	MockDelay time.Duration
	// FreshnessWindow is how old the backend's last run may be before a
	// collection is triggered.
	FreshnessWindow time.Duration
	// TriggerWait is the pause after triggering a collection.
	TriggerWait             time.Duration
	IncludeFoundationGrants bool
}

// DefaultAggregatorConfig returns the production defaults.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		MockDelay:       500 * time.Millisecond,
		FreshnessWindow: time.Hour,
		TriggerWait:     2 * time.Second,
	}
}

// ListingScraper turns an HTML listing page into raw records.
type ListingScraper interface {
	ScrapeListing(ctx context.Context, l ListingConfig) ([]Record, error)
}

// Aggregator walks the source chain in a fixed order and returns the first
// usable result, ending at static mock data.
type Aggregator struct {
	Registry   *Registry
	Fetcher    Fetcher
	Normalizer *Normalizer
	Classifier ResponseQualityClassifier
	Scraper    ListingScraper
	Config     AggregatorConfig

	now func() time.Time
}

// NewAggregator wires an aggregator with the default normalizer and
// boilerplate classifier.
func NewAggregator(reg *Registry, fetcher Fetcher, quality QualityFilter, cfg AggregatorConfig) *Aggregator {
	return &Aggregator{
		Registry:   reg,
		Fetcher:    fetcher,
		Normalizer: NewNormalizer(quality),
		Classifier: NewBoilerplateClassifier(),
		Scraper:    NewCollyScraper(FetchConfig{}),
		Config:     cfg,
		now:        time.Now,
	}
}

// FetchOpportunities runs the chain once. Source failures are recorded in
// the result's attempts; an error is returned only when nothing, not even
// static data, could be served.
func (a *Aggregator) FetchOpportunities(ctx context.Context) (FetchResult, error) {
	res := FetchResult{
		RunID:     uuid.NewString(),
		FetchedAt: a.clock(),
	}

	var opps []models.EnhancedOpportunity
	if a.Config.UseMockData {
		if err := sleepCtx(ctx, a.Config.MockDelay); err != nil {
			return res, fmt.Errorf("%w: %v", ErrSourcesExhausted, err)
		}
		opps = a.static(&res, mockDataFile, KindMock)
		res.Branch = BranchMock
	} else {
		var ok bool
		a.probeFreshness(ctx, &res)
		if opps, res.Branch, ok = a.fetchEnhanced(ctx, &res); !ok {
			opps, ok = a.fetchLegacy(ctx, &res)
			res.Branch = BranchLegacy
		}
		if !ok {
			// A run that ran out of time still serves static data; only an
			// explicit cancellation gives up.
			if err := ctx.Err(); errors.Is(err, context.Canceled) {
				return res, fmt.Errorf("%w: %v", ErrSourcesExhausted, err)
			}
			log.Printf("[Aggregator] run %s: remote sources failed, serving mock data", res.RunID)
			opps = a.static(&res, mockDataFile, KindMock)
			res.Branch = BranchMockFallback
		}
	}

	if a.Config.IncludeFoundationGrants {
		opps = append(opps, a.static(&res, foundationGrantsFile, KindEnhanced)...)
		opps = append(opps, a.scrapeListings(ctx, &res)...)
	}

	opps = dedupeByID(opps)
	if len(opps) == 0 {
		return res, ErrSourcesExhausted
	}

	for i := range opps {
		if opps[i].ScrapingMetadata != nil && opps[i].ScrapingMetadata.ScrapedAt == "" {
			opps[i].ScrapingMetadata.ScrapedAt = res.FetchedAt.UTC().Format(time.RFC3339)
		}
	}
	res.Opportunities = EnhanceAll(opps)

	metrics.RecordBranch(string(res.Branch))
	log.Printf("[Aggregator] run %s: served %d opportunities from %s (%d dropped)",
		res.RunID, len(res.Opportunities), res.Branch, res.Dropped)
	return res, nil
}

func (a *Aggregator) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

// probeFreshness asks the backend when it last ran and triggers a new
// collection if that was too long ago. Failures never abort the chain.
func (a *Aggregator) probeFreshness(ctx context.Context, res *FetchResult) {
	statuses := a.Registry.ByRole(RoleStatus)
	if len(statuses) == 0 {
		return
	}
	ep := statuses[0]

	start := time.Now()
	doc, err := a.Fetcher.Do(ctx, requestFor(ep))
	if err != nil {
		a.record(res, ep, OutcomeError, err, 0, start)
		return
	}
	fresh := hasRecentData(doc.Body, a.clock(), a.Config.FreshnessWindow)
	doc.Body.Close()
	if fresh {
		a.record(res, ep, OutcomeFresh, nil, 0, start)
		return
	}
	a.record(res, ep, OutcomeStale, nil, 0, start)

	for _, trig := range a.Registry.ByRole(RoleTrigger) {
		start := time.Now()
		log.Printf("[Aggregator] backend data is stale, triggering %s", trig.ID)
		doc, err := a.Fetcher.Do(ctx, requestFor(trig))
		if err != nil {
			a.record(res, trig, OutcomeError, err, 0, start)
			continue
		}
		doc.Body.Close()
		a.record(res, trig, OutcomeSuccess, nil, 0, start)
		if err := sleepCtx(ctx, a.Config.TriggerWait); err != nil {
			return
		}
		break
	}
}

// fetchEnhanced tries the enhanced endpoints in priority order.
func (a *Aggregator) fetchEnhanced(ctx context.Context, res *FetchResult) ([]models.EnhancedOpportunity, Branch, bool) {
	for _, ep := range a.Registry.ByRole(RoleEnhanced) {
		if ctx.Err() != nil {
			return nil, "", false
		}
		records, ok := a.fetchRecords(ctx, res, ep)
		if !ok {
			continue
		}

		if a.Classifier != nil && a.Classifier.IsPlaceholderContent(records) {
			a.record(res, ep, OutcomePlaceholder, nil, len(records), time.Now())
			log.Printf("[Aggregator] %s returned placeholder content, using curated EU data", ep.ID)
			curated := a.static(res, curatedEUFile, KindEU)
			if len(curated) > 0 {
				return curated, BranchCuratedFallback, true
			}
			continue
		}

		opps := a.normalize(res, records, kindFor(ep, KindEnhanced))
		if len(opps) == 0 {
			continue
		}
		return opps, BranchEnhanced, true
	}
	return nil, "", false
}

func (a *Aggregator) fetchLegacy(ctx context.Context, res *FetchResult) ([]models.EnhancedOpportunity, bool) {
	for _, ep := range a.Registry.ByRole(RoleLegacy) {
		if ctx.Err() != nil {
			return nil, false
		}
		records, ok := a.fetchRecords(ctx, res, ep)
		if !ok {
			continue
		}
		if opps := a.normalize(res, records, kindFor(ep, KindLegacy)); len(opps) > 0 {
			return opps, true
		}
	}
	return nil, false
}

// fetchRecords calls ep and decodes its payload, recording the attempt. It
// reports false for failures and empty payloads.
func (a *Aggregator) fetchRecords(ctx context.Context, res *FetchResult, ep EndpointConfig) ([]Record, bool) {
	start := time.Now()
	doc, err := a.Fetcher.Do(ctx, requestFor(ep))
	if err != nil {
		log.Printf("[Aggregator] %s failed: %v", ep.ID, err)
		a.record(res, ep, OutcomeError, err, 0, start)
		return nil, false
	}
	defer doc.Body.Close()

	records, err := DecodeRecords(doc.Body, ep.PayloadKey)
	if err != nil {
		log.Printf("[Aggregator] %s returned an invalid payload: %v", ep.ID, err)
		a.record(res, ep, OutcomeInvalid, err, 0, start)
		return nil, false
	}
	if len(records) == 0 {
		a.record(res, ep, OutcomeEmpty, nil, 0, start)
		return nil, false
	}
	a.record(res, ep, OutcomeSuccess, nil, len(records), start)
	return records, true
}

func (a *Aggregator) normalize(res *FetchResult, records []Record, kind SourceKind) []models.EnhancedOpportunity {
	opps, dropped := a.Normalizer.NormalizeAll(records, kind)
	res.Dropped += dropped
	metrics.RecordQualityDrops(string(kind), dropped)
	return opps
}

// static normalizes one of the compiled-in record sets.
func (a *Aggregator) static(res *FetchResult, name string, kind SourceKind) []models.EnhancedOpportunity {
	records, err := loadStatic(name)
	if err != nil {
		log.Printf("[Aggregator] %v", err)
		return nil
	}
	return a.normalize(res, records, kind)
}

func (a *Aggregator) scrapeListings(ctx context.Context, res *FetchResult) []models.EnhancedOpportunity {
	if a.Scraper == nil {
		return nil
	}
	var out []models.EnhancedOpportunity
	for _, l := range a.Registry.EnabledListings() {
		start := time.Now()
		ep := EndpointConfig{ID: l.ID}
		records, err := a.Scraper.ScrapeListing(ctx, l)
		if err != nil {
			log.Printf("[Aggregator] listing %s failed: %v", l.ID, err)
			a.record(res, ep, OutcomeError, err, 0, start)
			continue
		}
		if len(records) == 0 {
			a.record(res, ep, OutcomeEmpty, nil, 0, start)
			continue
		}
		a.record(res, ep, OutcomeSuccess, nil, len(records), start)
		out = append(out, a.normalize(res, records, KindListing)...)
	}
	return out
}

func (a *Aggregator) record(res *FetchResult, ep EndpointConfig, outcome string, err error, n int, start time.Time) {
	at := Attempt{
		Endpoint: ep.ID,
		Outcome:  outcome,
		Records:  n,
		Duration: time.Since(start),
	}
	if err != nil {
		at.Err = err.Error()
	}
	res.Attempts = append(res.Attempts, at)
	metrics.RecordAttempt(ep.ID, outcome, at.Duration.Seconds())
}

func requestFor(ep EndpointConfig) Request {
	return Request{Method: ep.Method, URL: ep.URL, Fetch: ep.Fetch}
}

func kindFor(ep EndpointConfig, fallback SourceKind) SourceKind {
	if ep.Kind != "" {
		return ep.Kind
	}
	return fallback
}

// dedupeByID keeps the first record for each id.
func dedupeByID(opps []models.EnhancedOpportunity) []models.EnhancedOpportunity {
	seen := make(map[string]struct{}, len(opps))
	out := make([]models.EnhancedOpportunity, 0, len(opps))
	for _, o := range opps {
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
