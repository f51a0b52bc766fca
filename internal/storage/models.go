package storage

import "time"

// TimeLayout is the minute-resolution timestamp encoding used across the
// history log, notifications, and report artifacts.
const TimeLayout = "2006-01-02 15:04"

// Observation is one ranking sample for a (phrase, SKU) pair. Immutable once
// created; the history log only ever grows by insertion.
type Observation struct {
	// Position is the organic search rank, starting at 1.
	Position int
	// PromoPosition is the promoted-slot rank, 0 when the card held no
	// promoted placement at sampling time.
	PromoPosition int
	// ObservedAt is the sampling wall-clock time, minute resolution. Every
	// observation produced within one fetch cycle carries the same value.
	ObservedAt time.Time
	// Phrase is the search phrase that produced this observation.
	Phrase string
	// SKU is the resolved stable product code.
	SKU string
}

// Merge appends a fresh batch onto an existing log without touching prior
// entries. The result length is always len(existing)+len(batch); repeated
// polls of the same SKU remain distinct history points.
func Merge(existing, batch []Observation) []Observation {
	merged := make([]Observation, 0, len(existing)+len(batch))
	merged = append(merged, existing...)
	merged = append(merged, batch...)
	return merged
}
