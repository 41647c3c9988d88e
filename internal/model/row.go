package model

import (
	"strconv"
	"time"
)

// LogRow is one asset's flattened record for the durable per-cycle log.
// Nil numeric fields serialize as an explicit "N/A" marker.
type LogRow struct {
	TS        time.Time
	Asset     string
	Prices    map[string]*float64 // currency → price, nil when absent
	Change24h *float64
	Volume24h *float64
	MarketCap *float64
	RSI       *float64
	MA7       *float64
	MA30      *float64
}

// NA is the marker written for absent numeric fields.
const NA = "N/A"

// FormatField renders an optional indicator value with two decimal places,
// or NA when the value is absent.
func FormatField(v *float64) string {
	if v == nil {
		return NA
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// FormatRaw renders an optional numeric field at full precision, or NA when
// the value is absent. Used for prices, where rounding would destroy
// sub-cent quotes.
func FormatRaw(v *float64) string {
	if v == nil {
		return NA
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
