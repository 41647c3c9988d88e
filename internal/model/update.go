package model

import "time"

// Update is the payload pushed to subscribers after each successful poll
// cycle: the full latest mapping plus the bounded display history. Both
// maps are deep copies owned by the receiver — never shared with the
// tracker's internal state.
type Update struct {
	Latest     map[string]PriceObservation  `json:"latest"`
	History    map[string][]ChartPoint      `json:"history"`
	Indicators map[string]IndicatorSnapshot `json:"indicators"`
	CycleTS    time.Time                    `json:"cycle_ts"`
}
