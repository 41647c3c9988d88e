package model

// IndicatorSnapshot holds the derived indicator values for one asset,
// recomputed each poll cycle. A nil field means not enough history yet —
// absent is explicit, never a sentinel value.
type IndicatorSnapshot struct {
	Asset string   `json:"asset"`
	RSI   *float64 `json:"rsi,omitempty"`   // in [0,100] when present
	MA7   *float64 `json:"ma_7,omitempty"`  // needs ≥7 points
	MA30  *float64 `json:"ma_30,omitempty"` // needs ≥30 points
}
