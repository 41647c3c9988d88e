package indicator

// RSI computes the Relative Strength Index over prices (oldest first).
// ok is false when fewer than period+1 points are available.
//
// Average gain and loss are plain means over the most recent `period`
// deltas (a non-positive delta contributes 0 gain, a non-negative delta
// contributes 0 loss). When the average loss is exactly zero the result
// is defined as 100 — maximal strength, and no division by zero.
func RSI(prices []float64, period int) (float64, bool) {
	if period < 1 || len(prices) < period+1 {
		return 0, false
	}

	deltas := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		deltas[i-1] = prices[i] - prices[i-1]
	}

	var gainSum, lossSum float64
	for _, d := range deltas[len(deltas)-period:] {
		if d > 0 {
			gainSum += d
		} else {
			lossSum += -d
		}
	}

	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	if avgLoss == 0 {
		return 100, true
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), true
}
