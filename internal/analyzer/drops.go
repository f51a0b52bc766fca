// Package analyzer derives drop alerts from the merged position history.
package analyzer

import (
	"sort"

	"rank-drop-alerts/internal/storage"
)

// Alert flags a sharp organic-rank drop between a SKU's two most recent
// observations. Alerts are ephemeral; they live only inside one cycle's
// notification payload.
type Alert struct {
	SKU      string
	Previous int
	Current  int
}

// FindDrops inspects every SKU present in the fresh batch against the full
// merged log. A SKU alerts when its most recent position worsened by at
// least threshold versus the observation before it. SKUs with fewer than two
// history points never alert. The comparison deliberately ignores how much
// wall-clock time separates the two observations.
func FindDrops(log []storage.Observation, freshSKUs []string, threshold int) []Alert {
	if threshold <= 0 || len(freshSKUs) == 0 {
		return nil
	}

	alerts := make([]Alert, 0)
	for _, sku := range dedupe(freshSKUs) {
		history := filterSKU(log, sku)
		if len(history) < 2 {
			continue
		}

		sort.SliceStable(history, func(i, j int) bool {
			return history[i].ObservedAt.After(history[j].ObservedAt)
		})

		current := history[0].Position
		previous := history[1].Position
		if current-previous >= threshold {
			alerts = append(alerts, Alert{SKU: sku, Previous: previous, Current: current})
		}
	}
	return alerts
}

func filterSKU(log []storage.Observation, sku string) []storage.Observation {
	matched := make([]storage.Observation, 0)
	for _, obs := range log {
		if obs.SKU == sku {
			matched = append(matched, obs)
		}
	}
	return matched
}

func dedupe(skus []string) []string {
	seen := make(map[string]struct{}, len(skus))
	unique := make([]string, 0, len(skus))
	for _, sku := range skus {
		if _, ok := seen[sku]; ok {
			continue
		}
		seen[sku] = struct{}{}
		unique = append(unique, sku)
	}
	return unique
}
