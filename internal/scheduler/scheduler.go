package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/export"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/provider"
)

// Entry pairs a collector with its polling interval.
type Entry struct {
	Collector provider.Collector
	Interval  time.Duration
}

// Scheduler drives every collector on its own fixed interval, plus the
// export cycle on a longer one. Jobs run in singleton mode: a slow poll
// overlapping its next tick skips that tick instead of piling up, and one
// collector's in-flight poll never delays another collector's schedule.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

// New creates a new Scheduler.
func New() *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules every entry and the optional exporter, runs each job
// immediately, and stops everything once ctx is cancelled. Adapter-level
// failures never reach the scheduler; they arrive here as typed outcomes
// and are only logged.
func (s *Scheduler) Start(ctx context.Context, entries []Entry, exporter *export.Exporter, exportInterval time.Duration) error {
	for _, e := range entries {
		e := e
		_, err := s.scheduler.Every(e.Interval).SingletonMode().StartImmediately().Do(func() {
			s.runPoll(ctx, e.Collector)
		})
		if err != nil {
			return err
		}
	}

	if exporter != nil {
		_, err := s.scheduler.Every(exportInterval).SingletonMode().Do(func() {
			s.runExport(ctx, exporter)
		})
		if err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		s.scheduler.Stop()
	}()

	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) runPoll(ctx context.Context, c provider.Collector) {
	if ctx.Err() != nil {
		return
	}

	out := c.Poll(ctx)
	switch out.Status {
	case provider.StatusCanceled:
		// Shutdown in progress; not an error.
	case provider.StatusTransient:
		log.Printf("ERROR: scheduler: %s poll failed, retrying next tick: %v", c.Name(), out.Err)
	default:
		log.Printf("INFO: scheduler: %s stored %d readings", c.Name(), out.Stored)
	}
}

func (s *Scheduler) runExport(ctx context.Context, exporter *export.Exporter) {
	if ctx.Err() != nil {
		return
	}

	if err := exporter.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("ERROR: scheduler: export cycle failed, store left intact: %v", err)
	}
}
