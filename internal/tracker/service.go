// Package tracker drives the poll cycle: fetch → history → indicators →
// alerts → durable log rows → broadcast. One background goroutine owns
// the whole pipeline; request-handling paths only read through State and
// subscribe through the hub, so slow subscriber I/O can never stall a
// cycle. No failure in the cycle path terminates the process — a bad
// cycle degrades to "no update", nothing more.
package tracker

import (
	"context"
	"log"
	"time"

	"github.com/TCSthecoder/Scraper/internal/alert"
	"github.com/TCSthecoder/Scraper/internal/hub"
	"github.com/TCSthecoder/Scraper/internal/metrics"
	"github.com/TCSthecoder/Scraper/internal/model"
	"github.com/TCSthecoder/Scraper/internal/notification"
)

// Fetcher is the upstream price source. A failed fetch returns an empty
// map, never an error — retry cadence is the poll interval.
type Fetcher interface {
	Fetch(ctx context.Context) map[string]model.PriceObservation
}

// Config holds the poll loop settings.
type Config struct {
	// Interval between cycle starts. Default 60s. Fixed at startup; the
	// loop does not adapt to fetch latency or failure streaks.
	Interval time.Duration

	Currencies      []string
	Rules           alert.Rules
	IndicatorWindow int
	DisplayWindow   int
}

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = 60 * time.Second
	}
}

// Service is the poll loop plus the shared state it owns.
type Service struct {
	cfg     Config
	fetcher Fetcher
	state   *State
	hub     *hub.Hub
	rowCh   chan<- model.LogRow

	// Optional collaborators — nil disables the concern.
	notifier notification.Notifier
	prom     *metrics.Metrics
	health   *metrics.HealthStatus
}

// New creates the tracker service. rowCh receives one row per asset per
// successful cycle for the persistence sinks; pass nil to disable.
func New(cfg Config, fetcher Fetcher, h *hub.Hub, rowCh chan<- model.LogRow) *Service {
	cfg.defaults()
	return &Service{
		cfg:      cfg,
		fetcher:  fetcher,
		state:    NewState(cfg.Currencies[0], cfg.IndicatorWindow, cfg.DisplayWindow),
		hub:      h,
		rowCh:    rowCh,
		notifier: notification.NewLogNotifier(),
	}
}

// SetNotifier replaces the alert sink (default: log notifier).
func (s *Service) SetNotifier(n notification.Notifier) { s.notifier = n }

// SetMetrics wires the Prometheus metrics and health status.
func (s *Service) SetMetrics(prom *metrics.Metrics, health *metrics.HealthStatus) {
	s.prom = prom
	s.health = health
}

// State exposes the read-only query surface.
func (s *Service) State() *State { return s.state }

// Hub returns the broadcast hub driven by this service.
func (s *Service) Hub() *hub.Hub { return s.hub }

// Run executes the poll loop until ctx is cancelled. The first cycle
// starts immediately; afterwards one cycle is entered per interval tick.
// Cycles never overlap: the loop blocks for the duration of a cycle
// before waiting for the next tick. On shutdown the in-flight cycle is
// finished, then the loop exits.
func (s *Service) Run(ctx context.Context) {
	log.Printf("[tracker] polling every %s", s.cfg.Interval)

	s.runCycle(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[tracker] poll loop stopped")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle performs one fetch-process-broadcast iteration. An empty
// fetch result skips all downstream work for this cycle: no history
// mutation, no rows, no broadcast.
func (s *Service) runCycle(ctx context.Context) {
	start := time.Now()
	obs := s.fetcher.Fetch(ctx)
	if s.prom != nil {
		s.prom.FetchDuration.Observe(time.Since(start).Seconds())
	}

	if len(obs) == 0 {
		log.Println("[tracker] empty fetch result, skipping cycle")
		if s.prom != nil {
			s.prom.CyclesSkipped.Inc()
		}
		if s.health != nil {
			s.health.SetCycle(false)
		}
		return
	}

	cycleTS := time.Now().UTC()
	update := s.state.ApplyCycle(obs, cycleTS)

	s.evaluateAlerts(ctx, obs)
	s.emitRows(obs, update.Indicators)
	s.hub.Publish(update)

	if s.prom != nil {
		s.prom.CyclesTotal.Inc()
		s.prom.ObservationsTotal.Add(float64(len(obs)))
		s.prom.Subscribers.Set(float64(s.hub.SubscriberCount()))
	}
	if s.health != nil {
		s.health.SetCycle(true)
	}
}

// evaluateAlerts checks each just-observed primary price against the
// configured rules. Notification failures are logged and dropped; alert
// evaluation never mutates price data.
func (s *Service) evaluateAlerts(ctx context.Context, obs map[string]model.PriceObservation) {
	primary := s.cfg.Currencies[0]
	for asset, o := range obs {
		price, ok := o.Price(primary)
		if !ok {
			continue
		}
		for _, ev := range alert.Check(asset, price, o.ObservedAt, s.cfg.Rules) {
			if s.prom != nil {
				s.prom.AlertsFired.WithLabelValues(string(ev.Kind)).Inc()
			}
			if err := s.notifier.Send(ctx, notification.FromEvent(ev)); err != nil {
				log.Printf("[tracker] alert delivery failed: %v", err)
			}
		}
	}
}

// emitRows hands one durable-log row per observed asset to the sinks.
// The send is non-blocking: if the sink pipeline is saturated the row is
// dropped rather than stalling the cycle.
func (s *Service) emitRows(obs map[string]model.PriceObservation, indicators map[string]model.IndicatorSnapshot) {
	if s.rowCh == nil {
		return
	}
	for asset, o := range obs {
		row := model.LogRow{
			TS:        o.ObservedAt,
			Asset:     asset,
			Prices:    make(map[string]*float64, len(s.cfg.Currencies)),
			Change24h: o.Change24h,
			Volume24h: o.Volume24h,
			MarketCap: o.MarketCap,
		}
		for _, cur := range s.cfg.Currencies {
			if p, ok := o.Price(cur); ok {
				v := p
				row.Prices[cur] = &v
			} else {
				row.Prices[cur] = nil
			}
		}
		if snap, ok := indicators[asset]; ok {
			row.RSI = snap.RSI
			row.MA7 = snap.MA7
			row.MA30 = snap.MA30
		}

		select {
		case s.rowCh <- row:
		default:
			log.Printf("[tracker] row pipeline full, dropping row for %s", asset)
		}
	}
}
