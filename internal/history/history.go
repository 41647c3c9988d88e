// Package history keeps per-asset bounded price series: a small window of
// bare prices feeding indicator math and a larger window of (timestamp,
// price) points for charting. Oldest entries are evicted FIFO once a
// window is full.
package history

import (
	"time"

	"github.com/TCSthecoder/Scraper/internal/model"
	"github.com/TCSthecoder/Scraper/internal/ringbuf"
)

// Default window sizes.
const (
	DefaultIndicatorWindow = 30
	DefaultDisplayWindow   = 100
)

// series holds both windows for one asset.
type series struct {
	prices *ringbuf.Ring[float64]
	chart  *ringbuf.Ring[model.ChartPoint]
}

// Store holds the history series for all tracked assets. Assets are
// initialized lazily on first record; an asset missing from a cycle is
// simply not updated. The Store is not internally locked — the tracker
// owns it and guards every access together with the latest-snapshot map,
// so readers never observe a half-applied cycle.
type Store struct {
	indicatorCap int
	displayCap   int
	assets       map[string]*series
}

// New creates a Store with the given window capacities. Non-positive caps
// fall back to the defaults.
func New(indicatorCap, displayCap int) *Store {
	if indicatorCap <= 0 {
		indicatorCap = DefaultIndicatorWindow
	}
	if displayCap <= 0 {
		displayCap = DefaultDisplayWindow
	}
	return &Store{
		indicatorCap: indicatorCap,
		displayCap:   displayCap,
		assets:       make(map[string]*series),
	}
}

// Record appends one observed price to the asset's series, evicting the
// oldest entries once the windows are full.
func (s *Store) Record(asset string, ts time.Time, price float64) {
	sr, ok := s.assets[asset]
	if !ok {
		sr = &series{
			prices: ringbuf.New[float64](s.indicatorCap),
			chart:  ringbuf.New[model.ChartPoint](s.displayCap),
		}
		s.assets[asset] = sr
	}
	sr.prices.Push(price)
	sr.chart.Push(model.ChartPoint{TS: ts, Price: price})
}

// Prices returns the asset's indicator-window prices, oldest first.
// Returns nil for an asset never recorded.
func (s *Store) Prices(asset string) []float64 {
	sr, ok := s.assets[asset]
	if !ok {
		return nil
	}
	return sr.prices.Values()
}

// Chart returns the asset's display-window points, oldest first.
// ok is false for an asset never recorded.
func (s *Store) Chart(asset string) ([]model.ChartPoint, bool) {
	sr, exists := s.assets[asset]
	if !exists {
		return nil, false
	}
	return sr.chart.Values(), true
}

// ChartAll returns a fresh copy of every asset's display window.
func (s *Store) ChartAll() map[string][]model.ChartPoint {
	out := make(map[string][]model.ChartPoint, len(s.assets))
	for asset, sr := range s.assets {
		out[asset] = sr.chart.Values()
	}
	return out
}

// Len returns the number of points in the asset's display window.
func (s *Store) Len(asset string) int {
	sr, ok := s.assets[asset]
	if !ok {
		return 0
	}
	return sr.chart.Len()
}
