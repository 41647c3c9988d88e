package model

import "time"

// AlertRule holds the configured price bounds for one asset.
// A nil bound never fires. Rules are static for the process lifetime.
type AlertRule struct {
	Asset string   `json:"asset"`
	High  *float64 `json:"high,omitempty"`
	Low   *float64 `json:"low,omitempty"`
}

// AlertKind distinguishes high-threshold and low-threshold crossings.
type AlertKind string

const (
	AlertHigh AlertKind = "high"
	AlertLow  AlertKind = "low"
)

// AlertEvent is a single threshold crossing observed during a poll cycle.
type AlertEvent struct {
	Asset     string    `json:"asset"`
	Kind      AlertKind `json:"kind"`
	Price     float64   `json:"price"`
	Threshold float64   `json:"threshold"`
	TS        time.Time `json:"ts"`
}
