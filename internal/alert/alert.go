// Package alert evaluates configured price thresholds. The evaluator is a
// pure predicate: it returns structured events and performs no I/O, so the
// caller decides whether an event becomes a log line, a webhook call, or
// both. A condition that holds across consecutive cycles fires every cycle
// (level-triggered, no deduplication).
package alert

import (
	"time"

	"github.com/TCSthecoder/Scraper/internal/model"
)

// Rules maps asset id → its configured thresholds.
type Rules map[string]model.AlertRule

// Check evaluates one asset's just-observed price against its rule.
// A "high" event fires when price ≥ the high bound, a "low" event when
// price ≤ the low bound. Nil bounds never fire. No sanity check is done
// on the bounds themselves: with high ≤ low both events can fire in the
// same call.
func Check(asset string, price float64, ts time.Time, rules Rules) []model.AlertEvent {
	rule, ok := rules[asset]
	if !ok {
		return nil
	}

	var events []model.AlertEvent
	if rule.High != nil && price >= *rule.High {
		events = append(events, model.AlertEvent{
			Asset:     asset,
			Kind:      model.AlertHigh,
			Price:     price,
			Threshold: *rule.High,
			TS:        ts,
		})
	}
	if rule.Low != nil && price <= *rule.Low {
		events = append(events, model.AlertEvent{
			Asset:     asset,
			Kind:      model.AlertLow,
			Price:     price,
			Threshold: *rule.Low,
			TS:        ts,
		})
	}
	return events
}
