// Package scheduler
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/meidesaqua/meidesaqua-api/app/services"
	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
)

// StatsScheduler periodically recomputes the dashboard snapshot and stores it
// in the cache, so the admin landing page never waits on aggregate queries.
type StatsScheduler struct {
	dashboard businessflow.DashboardFlow
	cache     services.ListingCache
	interval  time.Duration
}

func NewStatsScheduler(dashboard businessflow.DashboardFlow, cache services.ListingCache, interval time.Duration) *StatsScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StatsScheduler{
		dashboard: dashboard,
		cache:     cache,
		interval:  interval,
	}
}

// Start launches the refresh loop and returns a stop function.
func (s *StatsScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *StatsScheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stats, err := s.dashboard.ComputeStats(runCtx)
	if err != nil {
		log.Printf("stats scheduler: failed to compute snapshot: %v", err)
		return
	}
	if s.cache == nil {
		return
	}
	if err := s.cache.SetStatsSnapshot(runCtx, stats); err != nil {
		log.Printf("stats scheduler: failed to store snapshot: %v", err)
	}
}
