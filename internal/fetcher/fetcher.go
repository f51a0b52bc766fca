package fetcher

import (
	"context"
	"time"

	"rank-drop-alerts/internal/storage"
)

// RankFetcher produces one batch of ranking observations per fetch cycle.
type RankFetcher interface {
	// FetchAll queries every configured phrase and page and returns the
	// brand-matched observations, all stamped with the same minute-truncated
	// timestamp derived from at. An empty batch means "no new data", never a
	// failed fetch: individual page failures are absorbed.
	FetchAll(ctx context.Context, at time.Time) []storage.Observation
}
