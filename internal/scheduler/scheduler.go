// Package scheduler drives named recurring jobs from a single coordinator.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// JobFunc is invoked at every scheduled fire time.
type JobFunc func(ctx context.Context, fireTime time.Time) error

// Schedule yields the next fire time strictly after a reference instant.
type Schedule interface {
	Next(after time.Time) time.Time
}

// Every fires at a fixed interval, optionally aligned to interval boundaries.
type Every struct {
	Interval     time.Duration
	AlignToStart bool
}

// Next returns the next interval boundary after t.
func (e Every) Next(after time.Time) time.Time {
	if !e.AlignToStart {
		return after.Add(e.Interval)
	}
	next := after.Truncate(e.Interval)
	if !next.After(after) {
		next = next.Add(e.Interval)
	}
	return next
}

// Weekly fires at the next occurrence of a weekday + wall-clock time.
type Weekly struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// Next returns the next weekday/time occurrence after t.
func (w Weekly) Next(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(), w.Hour, w.Minute, 0, 0, after.Location())
	days := (int(w.Weekday) - int(after.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(after) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Job pairs a cadence with the work it fires.
type Job struct {
	Name     string
	Schedule Schedule
	Run      JobFunc
}

// Options tune scheduler behaviour.
type Options struct {
	StartupDelay time.Duration
}

// Scheduler computes per-job next-fire times and dispatches the earliest.
// Jobs run sequentially on the coordinator goroutine; a failed run is logged
// and the loop keeps going so one bad cycle never terminates the service.
type Scheduler struct {
	opts   Options
	jobs   []Job
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, jobs []Job, logger zerolog.Logger) *Scheduler {
	if len(jobs) == 0 {
		panic("scheduler requires at least one job")
	}
	return &Scheduler{
		opts:   opts,
		jobs:   jobs,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Run blocks, dispatching jobs at their fire times until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	now := time.Now().UTC()
	next := make([]time.Time, len(s.jobs))
	for i, job := range s.jobs {
		next[i] = job.Schedule.Next(now)
	}

	for {
		idx := earliest(next)
		fireAt := next[idx]

		delay := time.Until(fireAt)
		if delay < 0 {
			delay = 0
		}

		timer := time.NewTimer(delay)
		s.logger.Debug().Str("job", s.jobs[idx].Name).Time("fire_at", fireAt).Msg("waiting for next fire")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			timer.Stop()
		}

		job := s.jobs[idx]
		s.logger.Info().Str("job", job.Name).Time("fire_at", fireAt).Msg("executing scheduled job")

		if err := job.Run(ctx, fireAt); err != nil {
			s.logger.Error().Err(err).Str("job", job.Name).Time("fire_at", fireAt).Msg("job execution failed")
		}

		next[idx] = job.Schedule.Next(time.Now().UTC())
	}
}

func earliest(times []time.Time) int {
	idx := 0
	for i, t := range times {
		if t.Before(times[idx]) {
			idx = i
		}
	}
	return idx
}
