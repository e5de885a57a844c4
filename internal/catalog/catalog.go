// Package catalog owns the in-memory snapshot of opportunities served by
// the API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/david/funding-gateway/internal/ingest"
	"github.com/david/funding-gateway/internal/metrics"
	"github.com/david/funding-gateway/internal/models"
)

// ErrEmpty is returned when no snapshot has been committed yet.
var ErrEmpty = errors.New("catalog is empty")

// Source produces a full set of opportunities.
type Source interface {
	FetchOpportunities(ctx context.Context) (ingest.FetchResult, error)
}

// Snapshot is an immutable, committed set of opportunities.
type Snapshot struct {
	Opportunities []models.EnhancedOpportunity
	Branch        ingest.Branch
	Attempts      []ingest.Attempt
	RunID         string
	RefreshedAt   time.Time
	Seq           uint64
}

// Find returns the opportunity with id.
func (s *Snapshot) Find(id string) (models.EnhancedOpportunity, bool) {
	for _, o := range s.Opportunities {
		if o.ID == id {
			return o, true
		}
	}
	return models.EnhancedOpportunity{}, false
}

// DefaultLoadTimeout bounds the shared first load.
const DefaultLoadTimeout = 2 * time.Minute

// Catalog is the sole writer of the snapshot. Refreshes are numbered when
// they start and a result only replaces a snapshot from an older refresh.
type Catalog struct {
	// LoadTimeout bounds the first load triggered by Snapshot. The load
	// runs detached from the caller that started it.
	LoadTimeout time.Duration

	source Source

	mu   sync.RWMutex
	snap *Snapshot

	seq   atomic.Uint64
	group singleflight.Group
	jobs  sync.WaitGroup
	now   func() time.Time
}

func New(source Source) *Catalog {
	return &Catalog{source: source, now: time.Now, LoadTimeout: DefaultLoadTimeout}
}

// Current returns the committed snapshot, if any, without loading.
func (c *Catalog) Current() (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap, c.snap != nil
}

// Snapshot returns the committed snapshot, loading it on first use.
// Concurrent first loads share a single fetch. A caller whose ctx ends
// stops waiting but does not cancel the fetch the others share.
func (c *Catalog) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s, ok := c.Current(); ok {
		return s, nil
	}
	ch := c.group.DoChan("initial-load", func() (any, error) {
		if s, ok := c.Current(); ok {
			return s, nil
		}
		timeout := c.LoadTimeout
		if timeout <= 0 {
			timeout = DefaultLoadTimeout
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return c.Refresh(loadCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Snapshot), nil
	}
}

// Refresh fetches a new snapshot and commits it unless a refresh that
// started later has already committed. On failure the previous snapshot is
// kept. The returned snapshot is whichever one is current afterwards.
func (c *Catalog) Refresh(ctx context.Context) (*Snapshot, error) {
	seq := c.seq.Add(1)

	res, err := c.source.FetchOpportunities(ctx)
	if err != nil {
		metrics.RecordRefresh("error", 0)
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	next := &Snapshot{
		Opportunities: res.Opportunities,
		Branch:        res.Branch,
		Attempts:      res.Attempts,
		RunID:         res.RunID,
		RefreshedAt:   c.now(),
		Seq:           seq,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil && c.snap.Seq > seq {
		log.Printf("[Catalog] discarding refresh %d (run %s), snapshot %d is newer", seq, res.RunID, c.snap.Seq)
		metrics.RecordRefresh("stale", 0)
		return c.snap, nil
	}
	c.snap = next
	metrics.RecordRefresh("success", len(next.Opportunities))
	log.Printf("[Catalog] committed refresh %d: %d opportunities from %s", seq, len(next.Opportunities), next.Branch)
	return next, nil
}

// StartRefresh runs a refresh in the background and returns its job id.
// done, if non-nil, receives the outcome.
func (c *Catalog) StartRefresh(timeout time.Duration, done func(jobID string, s *Snapshot, err error)) string {
	jobID := uuid.NewString()
	c.jobs.Add(1)
	go func() {
		defer c.jobs.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s, err := c.Refresh(ctx)
		if err != nil {
			log.Printf("[Catalog] refresh job %s failed: %v", jobID, err)
		}
		if done != nil {
			done(jobID, s, err)
		}
	}()
	return jobID
}

// Wait blocks until background refreshes have finished.
func (c *Catalog) Wait() {
	c.jobs.Wait()
}

// Get returns one opportunity from the current snapshot.
func (c *Catalog) Get(ctx context.Context, id string) (models.EnhancedOpportunity, bool, error) {
	s, err := c.Snapshot(ctx)
	if err != nil {
		return models.EnhancedOpportunity{}, false, err
	}
	o, ok := s.Find(id)
	return o, ok, nil
}
