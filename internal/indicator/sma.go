package indicator

// MovingAverage computes the arithmetic mean of the most recent `period`
// prices (oldest first). ok is false when fewer than period points are
// available.
func MovingAverage(prices []float64, period int) (float64, bool) {
	if period < 1 || len(prices) < period {
		return 0, false
	}

	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), true
}
