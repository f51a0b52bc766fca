// Package report derives export artifacts and status snapshots from the
// history log. Everything here is a pure recomputation over a full log
// snapshot; no incremental state survives between export cycles.
package report

import (
	"fmt"
	"sort"
	"strings"

	"rank-drop-alerts/internal/storage"
)

// Export is one full derivation of the history log: the untransformed
// tabular dump plus a chronological position series per SKU.
type Export struct {
	// Rows mirror the log verbatim, in log order.
	Rows []storage.Observation
	// SKUs lists every distinct SKU in first-seen order.
	SKUs []string
	// Series maps each SKU to its observations sorted by timestamp ascending.
	Series map[string][]storage.Observation
}

// Key identifies one tracked (phrase, SKU) combination.
type Key struct {
	Phrase string
	SKU    string
}

// BuildExport computes the full tabular snapshot and per-SKU series. Calling
// it twice on the same log yields identical output.
func BuildExport(log []storage.Observation) Export {
	export := Export{
		Rows:   append([]storage.Observation(nil), log...),
		Series: make(map[string][]storage.Observation),
	}

	for _, obs := range log {
		if _, ok := export.Series[obs.SKU]; !ok {
			export.SKUs = append(export.SKUs, obs.SKU)
		}
		export.Series[obs.SKU] = append(export.Series[obs.SKU], obs)
	}

	for sku, series := range export.Series {
		sorted := append([]storage.Observation(nil), series...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ObservedAt.Before(sorted[j].ObservedAt)
		})
		export.Series[sku] = sorted
	}

	return export
}

// BuildStatusSnapshot keeps the most recent observation per (phrase, SKU).
// When two observations share a timestamp the later log entry wins.
func BuildStatusSnapshot(log []storage.Observation) map[Key]storage.Observation {
	snapshot := make(map[Key]storage.Observation)
	for _, obs := range log {
		key := Key{Phrase: obs.Phrase, SKU: obs.SKU}
		latest, ok := snapshot[key]
		if !ok || !obs.ObservedAt.Before(latest.ObservedAt) {
			snapshot[key] = obs
		}
	}
	return snapshot
}

// SortedKeys orders snapshot keys by phrase then SKU for stable rendering.
func SortedKeys(snapshot map[Key]storage.Observation) []Key {
	keys := make([]Key, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Phrase != keys[j].Phrase {
			return keys[i].Phrase < keys[j].Phrase
		}
		return keys[i].SKU < keys[j].SKU
	})
	return keys
}

// RenderStatusText formats the snapshot as a plain-text reply for the
// messaging channel.
func RenderStatusText(snapshot map[Key]storage.Observation) string {
	if len(snapshot) == 0 {
		return "No positions recorded yet."
	}

	builder := strings.Builder{}
	builder.WriteString("Latest known positions:\n")
	for _, key := range SortedKeys(snapshot) {
		obs := snapshot[key]
		builder.WriteString(fmt.Sprintf(
			"%s / %s: position %d",
			key.Phrase, key.SKU, obs.Position,
		))
		if obs.PromoPosition > 0 {
			builder.WriteString(fmt.Sprintf(" (promo %d)", obs.PromoPosition))
		}
		builder.WriteString(" at " + obs.ObservedAt.Format(storage.TimeLayout) + "\n")
	}
	return builder.String()
}
