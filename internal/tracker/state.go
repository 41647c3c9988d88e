package tracker

import (
	"sync"
	"time"

	"github.com/TCSthecoder/Scraper/internal/history"
	"github.com/TCSthecoder/Scraper/internal/indicator"
	"github.com/TCSthecoder/Scraper/internal/model"
)

// State owns the process-wide mutable snapshot: latest observation and
// bounded history per asset, plus the indicators derived from the history.
// Exactly one writer (the poll loop) mutates it, under a single lock held
// for the whole cycle update, so concurrent readers observe either the
// pre-cycle or the fully-updated post-cycle state — never an asset-by-asset
// intermediate.
type State struct {
	mu         sync.RWMutex
	latest     map[string]model.PriceObservation
	hist       *history.Store
	indicators map[string]model.IndicatorSnapshot
	primary    string
}

// NewState creates an empty State. primary is the currency driving
// history and indicator math.
func NewState(primary string, indicatorWindow, displayWindow int) *State {
	return &State{
		latest:     make(map[string]model.PriceObservation),
		hist:       history.New(indicatorWindow, displayWindow),
		indicators: make(map[string]model.IndicatorSnapshot),
		primary:    primary,
	}
}

// ApplyCycle merges one successful fetch into the state and returns the
// update to broadcast. For each asset present: the latest observation is
// replaced; if the observation carries a primary-currency price, it is
// appended to the history and the indicators are recomputed. Assets
// absent from obs keep their previous state untouched.
func (s *State) ApplyCycle(obs map[string]model.PriceObservation, cycleTS time.Time) model.Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	for asset, o := range obs {
		s.latest[asset] = o
		if price, ok := o.Price(s.primary); ok {
			s.hist.Record(asset, o.ObservedAt, price)
			s.indicators[asset] = indicator.Compute(asset, s.hist.Prices(asset))
		}
	}

	return model.Update{
		Latest:     s.copyLatestLocked(),
		History:    s.hist.ChartAll(),
		Indicators: s.copyIndicatorsLocked(),
		CycleTS:    cycleTS,
	}
}

// Latest returns a copy of the current asset → observation mapping.
func (s *State) Latest() map[string]model.PriceObservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLatestLocked()
}

// History returns a copy of every asset's display-window series.
func (s *State) History() map[string][]model.ChartPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hist.ChartAll()
}

// ChartSeries returns the (timestamp, price) pairs for one asset, oldest
// first. ok is false for an asset with no recorded data.
func (s *State) ChartSeries(asset string) ([]model.ChartPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hist.Chart(asset)
}

// Indicators returns a copy of the current indicator snapshots.
func (s *State) Indicators() map[string]model.IndicatorSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyIndicatorsLocked()
}

// IndicatorPrices returns the indicator-window price series for an asset.
func (s *State) IndicatorPrices(asset string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hist.Prices(asset)
}

// Observations are immutable once created, so sharing their inner maps
// with readers is safe; only the top-level map is copied.
func (s *State) copyLatestLocked() map[string]model.PriceObservation {
	cp := make(map[string]model.PriceObservation, len(s.latest))
	for k, v := range s.latest {
		cp[k] = v
	}
	return cp
}

func (s *State) copyIndicatorsLocked() map[string]model.IndicatorSnapshot {
	cp := make(map[string]model.IndicatorSnapshot, len(s.indicators))
	for k, v := range s.indicators {
		cp[k] = v
	}
	return cp
}
