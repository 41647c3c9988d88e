// cmd/pricesim — Demo simple-price API server.
// Serves simulated prices for testing coinwatch without hitting the real
// upstream (or burning its rate limit).
//
// Response shape matches the /simple/price endpoint:
//
//	{"bitcoin":{"usd":85123.4,"eur":78341.2,"usd_24h_change":1.3,...}}
//
// Config (env vars):
//
//	PRICESIM_ADDR        — listen address           (default: ":8800")
//	PRICESIM_COINS       — comma-separated coin ids (default: "bitcoin,ethereum,solana")
//	PRICESIM_ERROR_RATE  — fraction of requests answered 429 (default: "0")
package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// coin holds per-asset simulation state. Prices in USD; other currencies
// are derived with fixed conversion rates.
type coin struct {
	ID       string
	PriceUSD float64
	Change24 float64
}

var conversionRates = map[string]float64{
	"usd": 1,
	"eur": 0.92,
	"gbp": 0.79,
	"inr": 83.2,
	"jpy": 147.5,
}

var startPrices = map[string]float64{
	"bitcoin":  85000,
	"ethereum": 2000,
	"solana":   150,
}

type simulator struct {
	mu    sync.RWMutex
	coins map[string]*coin
}

func newSimulator(ids []string) *simulator {
	s := &simulator{coins: make(map[string]*coin, len(ids))}
	for _, id := range ids {
		start, ok := startPrices[id]
		if !ok {
			start = 10 + rand.Float64()*1000
		}
		s.coins[id] = &coin{ID: id, PriceUSD: start}
	}
	return s
}

// step applies one random-walk move to every coin, ±0.5% per tick.
func (s *simulator) step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.coins {
		move := (rand.Float64() - 0.5) * 0.01
		c.PriceUSD *= 1 + move
		c.Change24 += move * 100
	}
}

func (s *simulator) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		s.step()
	}
}

// simplePrice renders the response for the requested ids and currencies.
func (s *simulator) simplePrice(ids, currencies []string, extras bool) map[string]map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := make(map[string]map[string]float64, len(ids))
	for _, id := range ids {
		c, ok := s.coins[id]
		if !ok {
			continue // unknown ids are silently omitted, like the real API
		}
		entry := make(map[string]float64, len(currencies)+3)
		for _, cur := range currencies {
			rate, ok := conversionRates[cur]
			if !ok {
				continue
			}
			entry[cur] = c.PriceUSD * rate
		}
		if extras {
			entry["usd_24h_change"] = c.Change24
			entry["usd_24h_vol"] = c.PriceUSD * 1e4
			entry["usd_market_cap"] = c.PriceUSD * 1e7
		}
		resp[id] = entry
	}
	return resp
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	addr := getEnv("PRICESIM_ADDR", ":8800")
	coinList := strings.Split(getEnv("PRICESIM_COINS", "bitcoin,ethereum,solana"), ",")
	errorRate, _ := strconv.ParseFloat(getEnv("PRICESIM_ERROR_RATE", "0"), 64)

	sim := newSimulator(coinList)
	go sim.run(time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("/simple/price", func(w http.ResponseWriter, r *http.Request) {
		if errorRate > 0 && rand.Float64() < errorRate {
			http.Error(w, `{"status":{"error_code":429}}`, http.StatusTooManyRequests)
			return
		}
		q := r.URL.Query()
		ids := strings.Split(q.Get("ids"), ",")
		currencies := strings.Split(q.Get("vs_currencies"), ",")
		extras := q.Get("include_24hr_change") == "true" ||
			q.Get("include_24hr_vol") == "true" ||
			q.Get("include_market_cap") == "true"

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sim.simplePrice(ids, currencies, extras))
	})

	log.Printf("[pricesim] serving %d coins on %s (error rate %.2f)", len(coinList), addr, errorRate)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[pricesim] %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
