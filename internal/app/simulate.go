package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"rank-drop-alerts/internal/fetcher"
	"rank-drop-alerts/internal/service"
	"rank-drop-alerts/internal/storage"
)

// SimulateAlert drives a synthetic two-observation history through the real
// pipeline to exercise drop detection and alert delivery without touching
// the live log.
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is disabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("telegram not configured; nothing to deliver")
	}

	now := time.Now().UTC().Truncate(time.Minute)

	store := &memoryStore{}
	if err := store.Append(ctx, []storage.Observation{{
		Position:   opts.Previous,
		ObservedAt: now.Add(-time.Hour),
		Phrase:     opts.Phrase,
		SKU:        opts.SKU,
	}}); err != nil {
		return err
	}

	static := &staticFetcher{batch: []storage.Observation{{
		Position:   opts.Current,
		ObservedAt: now,
		Phrase:     opts.Phrase,
		SKU:        opts.SKU,
	}}}

	svc := service.New(static, store, notifier, a.Config.Alerting.DropThreshold, true, a.Logger)
	return svc.RunCycle(ctx, now)
}

type staticFetcher struct {
	batch []storage.Observation
}

func (s *staticFetcher) FetchAll(ctx context.Context, at time.Time) []storage.Observation {
	return s.batch
}

// memoryStore is a throwaway in-process history used only by simulation.
type memoryStore struct {
	mu  sync.Mutex
	log []storage.Observation
}

func (m *memoryStore) Load(ctx context.Context) ([]storage.Observation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.log) == 0 {
		return nil, false, nil
	}
	return append([]storage.Observation(nil), m.log...), true, nil
}

func (m *memoryStore) Append(ctx context.Context, batch []storage.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = storage.Merge(m.log, batch)
	return nil
}

var _ fetcher.RankFetcher = (*staticFetcher)(nil)
var _ storage.HistoryStore = (*memoryStore)(nil)
