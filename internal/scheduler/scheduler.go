// Package scheduler runs the periodic rematch sweep.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"my-race-engineer/internal/logger"
	"my-race-engineer/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// cronPrintfLogger adapts zerolog to cron's Printf-style logger.
type cronPrintfLogger struct {
	log zerolog.Logger
}

func (l cronPrintfLogger) Printf(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

// Scheduler owns the cron runner for background jobs. The rematch
// sweep re-evaluates profiles changed since the previous run, so racers
// who sign up or edit their name between ingests still pick up links.
type Scheduler struct {
	cron       *cron.Cron
	resolution *service.ResolutionService
	spec       string

	mu      sync.Mutex
	lastRun time.Time
}

// NewScheduler creates a scheduler that runs the rematch sweep on the
// given cron spec (with seconds).
func NewScheduler(resolution *service.ResolutionService, spec string) *Scheduler {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cron.VerbosePrintfLogger(cronPrintfLogger{log: logger.WithComponent("cron")})),
	)

	return &Scheduler{
		cron:       c,
		resolution: resolution,
		spec:       spec,
	}
}

// Start registers the rematch sweep and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runRematchSweep); err != nil {
		return fmt.Errorf("scheduling rematch sweep: %w", err)
	}

	s.cron.Start()
	logger.WithComponent("scheduler").Info().Str("spec", s.spec).Msg("scheduler started")
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.WithComponent("scheduler").Info().Msg("scheduler stopped")
}

// RunSweepNow triggers the rematch sweep immediately.
func (s *Scheduler) RunSweepNow() {
	s.runRematchSweep()
}

func (s *Scheduler) runRematchSweep() {
	log := logger.WithComponent("scheduler")

	// The first run after boot has no previous run time and sweeps
	// every profile.
	s.mu.Lock()
	since := s.lastRun
	s.lastRun = time.Now().UTC()
	s.mu.Unlock()

	results, err := s.resolution.RematchSweep(context.Background(), since)
	if err != nil {
		log.Error().Err(err).Msg("rematch sweep failed")
		return
	}

	var created, updated int
	for _, r := range results {
		created += r.LinksCreated
		updated += r.LinksUpdated
	}

	log.Info().
		Int("profiles", len(results)).
		Int("links_created", created).
		Int("links_updated", updated).
		Msg("rematch sweep complete")
}
