package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rank-drop-alerts/internal/storage"
)

type fakeFetcher struct {
	batches [][]storage.Observation
	calls   int
}

func (f *fakeFetcher) FetchAll(ctx context.Context, at time.Time) []storage.Observation {
	if f.calls >= len(f.batches) {
		return nil
	}
	batch := f.batches[f.calls]
	f.calls++
	return batch
}

type fakeStore struct {
	mu      sync.Mutex
	log     []storage.Observation
	loadErr error
	addErr  error
}

func (s *fakeStore) Load(ctx context.Context) ([]storage.Observation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	if len(s.log) == 0 {
		return nil, false, nil
	}
	return append([]storage.Observation(nil), s.log...), true, nil
}

func (s *fakeStore) Append(ctx context.Context, batch []storage.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return s.addErr
	}
	s.log = storage.Merge(s.log, batch)
	return nil
}

type fakeNotifier struct {
	texts []string
}

func (n *fakeNotifier) SendText(ctx context.Context, text string) error {
	n.texts = append(n.texts, text)
	return nil
}

func (n *fakeNotifier) SendFile(ctx context.Context, path, caption string) error {
	return nil
}

func TestRunCycleEndToEndDropScenario(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(4 * time.Hour)

	fetch := &fakeFetcher{batches: [][]storage.Observation{
		{{Position: 5, ObservedAt: t1, Phrase: "p", SKU: "X"}},
		{{Position: 40, ObservedAt: t2, Phrase: "p", SKU: "X"}},
	}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	svc := New(fetch, store, notifier, 20, true, zerolog.Nop())

	if err := svc.RunCycle(context.Background(), t1); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if len(store.log) != 1 {
		t.Fatalf("first cycle should persist one entry, got %d", len(store.log))
	}
	if len(notifier.texts) != 1 {
		t.Fatalf("first cycle should notify once, got %d", len(notifier.texts))
	}
	if strings.Contains(notifier.texts[0], "drops detected") {
		t.Fatal("single observation must not alert")
	}

	if err := svc.RunCycle(context.Background(), t2); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if len(store.log) != 2 {
		t.Fatalf("second cycle should append, got %d entries", len(store.log))
	}
	second := notifier.texts[1]
	if !strings.Contains(second, "drops detected") {
		t.Fatalf("drop from 5 to 40 must alert, got:\n%s", second)
	}
	if !strings.Contains(second, "from 5 to 40") {
		t.Fatalf("alert should carry both positions, got:\n%s", second)
	}
}

func TestRunCycleEmptyBatchNotifiesNothingFound(t *testing.T) {
	fetch := &fakeFetcher{}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	svc := New(fetch, store, notifier, 20, true, zerolog.Nop())

	if err := svc.RunCycle(context.Background(), time.Now()); err != nil {
		t.Fatalf("empty batch must not be an error: %v", err)
	}
	if len(store.log) != 0 {
		t.Fatal("nothing should be persisted on an empty batch")
	}
	if len(notifier.texts) != 1 || !strings.Contains(notifier.texts[0], "No tracked cards found") {
		t.Fatalf("expected the nothing-found notification, got %v", notifier.texts)
	}
}

func TestRunCycleCorruptLogIsFatalAndSurfaced(t *testing.T) {
	fetch := &fakeFetcher{batches: [][]storage.Observation{
		{{Position: 5, ObservedAt: time.Now(), Phrase: "p", SKU: "X"}},
	}}
	store := &fakeStore{loadErr: storage.ErrCorrupt}
	notifier := &fakeNotifier{}

	svc := New(fetch, store, notifier, 20, true, zerolog.Nop())

	err := svc.RunCycle(context.Background(), time.Now())
	if !errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("corrupt log must propagate, got %v", err)
	}
	if len(notifier.texts) != 1 || !strings.Contains(notifier.texts[0], "History log failure") {
		t.Fatalf("operator must be told before the error propagates, got %v", notifier.texts)
	}
}

func TestRunCycleAppendFailureIsFatalAndSurfaced(t *testing.T) {
	fetch := &fakeFetcher{batches: [][]storage.Observation{
		{{Position: 5, ObservedAt: time.Now(), Phrase: "p", SKU: "X"}},
	}}
	writeErr := errors.New("disk full")
	store := &fakeStore{addErr: writeErr}
	notifier := &fakeNotifier{}

	svc := New(fetch, store, notifier, 20, true, zerolog.Nop())

	err := svc.RunCycle(context.Background(), time.Now())
	if !errors.Is(err, writeErr) {
		t.Fatalf("append failure must propagate, got %v", err)
	}
	if len(notifier.texts) != 1 || !strings.Contains(notifier.texts[0], "History log failure") {
		t.Fatalf("operator must be told about the write failure, got %v", notifier.texts)
	}
}

func TestRunCycleAlertingDisabledSkipsDetection(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fetch := &fakeFetcher{batches: [][]storage.Observation{
		{{Position: 5, ObservedAt: t1, Phrase: "p", SKU: "X"}},
		{{Position: 99, ObservedAt: t1.Add(time.Hour), Phrase: "p", SKU: "X"}},
	}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	svc := New(fetch, store, notifier, 20, false, zerolog.Nop())

	_ = svc.RunCycle(context.Background(), t1)
	_ = svc.RunCycle(context.Background(), t1.Add(time.Hour))

	for _, text := range notifier.texts {
		if strings.Contains(text, "drops detected") {
			t.Fatal("alerting disabled must suppress drop alerts")
		}
	}
}

func TestRunCycleMessageListsBatchPositions(t *testing.T) {
	t1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fetch := &fakeFetcher{batches: [][]storage.Observation{
		{{Position: 5, PromoPosition: 2, ObservedAt: t1, Phrase: "mens pajama", SKU: "RRPPSBK0924"}},
	}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	svc := New(fetch, store, notifier, 20, true, zerolog.Nop())
	if err := svc.RunCycle(context.Background(), t1); err != nil {
		t.Fatal(err)
	}

	text := notifier.texts[0]
	for _, want := range []string{"mens pajama", "RRPPSBK0924", "position: 5", "promo: 2", "2025-06-01 10:00"} {
		if !strings.Contains(text, want) {
			t.Fatalf("cycle message missing %q:\n%s", want, text)
		}
	}
}
