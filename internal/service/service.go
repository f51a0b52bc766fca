// Package service orchestrates one tracking cycle: fetch, merge, analyze,
// notify.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rank-drop-alerts/internal/analyzer"
	"rank-drop-alerts/internal/fetcher"
	"rank-drop-alerts/internal/notify"
	"rank-drop-alerts/internal/storage"
)

// Service runs the position-tracking pipeline.
type Service struct {
	fetcher   fetcher.RankFetcher
	store     storage.HistoryStore
	notifier  notify.Notifier
	logger    zerolog.Logger
	threshold int
	alertsOn  bool
}

// New constructs the tracking service. notifier may be nil when no messaging
// channel is configured.
func New(f fetcher.RankFetcher, store storage.HistoryStore, notifier notify.Notifier, threshold int, alertsOn bool, logger zerolog.Logger) *Service {
	return &Service{
		fetcher:   f,
		store:     store,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		threshold: threshold,
		alertsOn:  alertsOn,
	}
}

// RunCycle executes one fetch → merge → analyze → notify pass. Per-page
// fetch failures were already absorbed by the fetcher; the only fatal
// condition here is a persistence failure, which is surfaced to the operator
// before the error propagates.
func (s *Service) RunCycle(ctx context.Context, at time.Time) error {
	batch := s.fetcher.FetchAll(ctx, at)
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(batch) == 0 {
		s.logger.Info().Time("at", at).Msg("no tracked cards found this cycle")
		s.sendText(ctx, "No tracked cards found.")
		return nil
	}

	existing, found, err := s.store.Load(ctx)
	if err != nil {
		s.sendText(ctx, "History log failure: "+err.Error())
		return fmt.Errorf("load history: %w", err)
	}
	if !found {
		s.logger.Info().Msg("no prior history; starting a new log")
	}

	merged := storage.Merge(existing, batch)

	if err := s.store.Append(ctx, batch); err != nil {
		s.sendText(ctx, "History log failure: "+err.Error())
		return fmt.Errorf("append history: %w", err)
	}

	var alerts []analyzer.Alert
	if s.alertsOn {
		alerts = analyzer.FindDrops(merged, batchSKUs(batch), s.threshold)
	}

	s.logger.Info().
		Time("at", at).
		Int("batch", len(batch)).
		Int("log", len(merged)).
		Int("alerts", len(alerts)).
		Msg("cycle recorded")

	s.sendText(ctx, renderCycleMessage(batch, alerts))
	return nil
}

// sendText delivers best-effort: notification transport failures are logged
// and never abort the pipeline.
func (s *Service) sendText(ctx context.Context, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendText(ctx, text); err != nil {
		s.logger.Error().Err(err).Msg("notification delivery failed")
	}
}

func batchSKUs(batch []storage.Observation) []string {
	skus := make([]string, 0, len(batch))
	for _, obs := range batch {
		skus = append(skus, obs.SKU)
	}
	return skus
}

func renderCycleMessage(batch []storage.Observation, alerts []analyzer.Alert) string {
	builder := strings.Builder{}
	builder.WriteString("Tracked card positions:\n\n")

	for _, obs := range batch {
		builder.WriteString(fmt.Sprintf("query: %s\n", obs.Phrase))
		builder.WriteString(fmt.Sprintf("sku: %s\n", obs.SKU))
		builder.WriteString(fmt.Sprintf("position: %d", obs.Position))
		if obs.PromoPosition > 0 {
			builder.WriteString(fmt.Sprintf(", promo: %d", obs.PromoPosition))
		}
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("time: %s\n\n", obs.ObservedAt.Format(storage.TimeLayout)))
	}

	if len(alerts) > 0 {
		builder.WriteString("Sharp position drops detected:\n")
		for _, alert := range alerts {
			builder.WriteString(fmt.Sprintf("sku %s: position fell from %d to %d\n", alert.SKU, alert.Previous, alert.Current))
		}
	}

	return strings.TrimRight(builder.String(), "\n")
}
