package model

import (
	"encoding/json"
	"time"
)

// PriceObservation is one asset's state from a single upstream fetch.
// Prices maps currency code → price. Optional fields are nil when the
// upstream response omitted them. Immutable once created.
type PriceObservation struct {
	Asset      string             `json:"asset"`
	Prices     map[string]float64 `json:"prices"`
	Change24h  *float64           `json:"change_24h,omitempty"`
	Volume24h  *float64           `json:"volume_24h,omitempty"`
	MarketCap  *float64           `json:"market_cap,omitempty"`
	ObservedAt time.Time          `json:"observed_at"` // UTC
}

// Price returns the observation's price in the given currency.
// ok is false if the upstream response had no price for that currency.
func (o *PriceObservation) Price(currency string) (float64, bool) {
	p, ok := o.Prices[currency]
	return p, ok
}

// JSON returns the JSON-encoded observation (ignoring errors for hot-path usage).
func (o *PriceObservation) JSON() []byte {
	b, _ := json.Marshal(o)
	return b
}

// ChartPoint is a single (timestamp, price) pair for the display history.
type ChartPoint struct {
	TS    time.Time `json:"ts"`
	Price float64   `json:"price"`
}
