// Package indicator provides technical indicator calculations over a
// bounded price series.
//
// All functions are pure and deterministic: identical input sequences
// produce identical results, so the package needs no live data source in
// tests. Insufficient history is reported through the ok return, never as
// a sentinel value.
package indicator

import "github.com/TCSthecoder/Scraper/internal/model"

// Default periods for the per-cycle snapshot.
const (
	RSIPeriod = 14
	MAShort   = 7
	MALong    = 30
)

// Compute derives the full indicator snapshot for one asset from its
// indicator-window price series (oldest first).
func Compute(asset string, prices []float64) model.IndicatorSnapshot {
	snap := model.IndicatorSnapshot{Asset: asset}
	if v, ok := RSI(prices, RSIPeriod); ok {
		snap.RSI = &v
	}
	if v, ok := MovingAverage(prices, MAShort); ok {
		snap.MA7 = &v
	}
	if v, ok := MovingAverage(prices, MALong); ok {
		snap.MA30 = &v
	}
	return snap
}
