// Package scheduler runs the periodic catalog refresh.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule refreshes the catalog once an hour.
const DefaultSchedule = "@every 1h"

// RefreshFunc adapts a function to the refresh job.
type RefreshFunc func(ctx context.Context) error

// Start registers the refresh job on schedule and starts the cron runner.
// Each run is bounded by timeout. Callers stop the returned runner on exit.
func Start(schedule string, timeout time.Duration, refresh RefreshFunc) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		start := time.Now()
		if err := refresh(ctx); err != nil {
			log.Printf("[Scheduler] scheduled refresh failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
			return
		}
		log.Printf("[Scheduler] scheduled refresh finished in %s", time.Since(start).Round(time.Millisecond))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	c.Start()
	log.Printf("[Scheduler] refresh scheduled %s", schedule)
	return c, nil
}
