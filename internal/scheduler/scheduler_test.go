package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestEveryNextAligned(t *testing.T) {
	every := Every{Interval: 4 * time.Hour, AlignToStart: true}

	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	next := every.Next(now)

	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
	if !next.After(now) {
		t.Fatal("next fire must be strictly after the reference time")
	}
}

func TestEveryNextUnaligned(t *testing.T) {
	every := Every{Interval: time.Hour}

	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	next := every.Next(now)

	if !next.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected now+interval, got %v", next)
	}
}

func TestWeeklyNextSameWeek(t *testing.T) {
	weekly := Weekly{Weekday: time.Sunday, Hour: 10, Minute: 0}

	// a Thursday
	now := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)
	next := weekly.Next(now)

	want := time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestWeeklyNextRollsOverWhenTimePassed(t *testing.T) {
	weekly := Weekly{Weekday: time.Sunday, Hour: 10, Minute: 0}

	// Sunday 10:00 exactly: the next fire is the following Sunday
	now := time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)
	next := weekly.Next(now)

	want := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestWeeklyNextLaterSameDay(t *testing.T) {
	weekly := Weekly{Weekday: time.Sunday, Hour: 10, Minute: 0}

	now := time.Date(2025, 6, 8, 8, 0, 0, 0, time.UTC)
	next := weekly.Next(now)

	want := time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestSchedulerRunsEarliestJobAndSurvivesFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan string, 4)
	jobs := []Job{
		{
			Name:     "fast",
			Schedule: Every{Interval: 10 * time.Millisecond},
			Run: func(ctx context.Context, _ time.Time) error {
				fired <- "fast"
				return context.DeadlineExceeded // failures must not stop the loop
			},
		},
		{
			Name:     "slow",
			Schedule: Every{Interval: time.Hour},
			Run: func(ctx context.Context, _ time.Time) error {
				fired <- "slow"
				return nil
			},
		},
	}

	sched := New(Options{}, jobs, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case name := <-fired:
			if name != "fast" {
				t.Fatalf("expected the earliest job to fire, got %q", name)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler did not fire in time")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancellation")
	}
}
