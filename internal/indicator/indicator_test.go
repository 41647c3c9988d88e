package indicator

import (
	"math"
	"testing"
)

const tol = 1e-9

func TestRSI_InsufficientData(t *testing.T) {
	cases := []struct {
		name   string
		n      int
		period int
	}{
		{"empty", 0, 14},
		{"one_point", 1, 14},
		{"period_points", 14, 14}, // needs period+1
		{"short_period", 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prices := make([]float64, tc.n)
			for i := range prices {
				prices[i] = float64(i + 1)
			}
			if _, ok := RSI(prices, tc.period); ok {
				t.Errorf("RSI over %d points with period %d should be absent", tc.n, tc.period)
			}
		})
	}
}

func TestRSI_ZeroAverageLossIsHundred(t *testing.T) {
	// Flat and strictly rising series both have zero average loss — the
	// result is defined as exactly 100, not an error.
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 42.5
	}
	v, ok := RSI(flat, 14)
	if !ok || v != 100 {
		t.Errorf("flat series: got (%.4f, %v), want (100, true)", v, ok)
	}

	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	v, ok = RSI(rising, 14)
	if !ok || v != 100 {
		t.Errorf("rising series: got (%.4f, %v), want (100, true)", v, ok)
	}
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = float64(1000 - i)
	}
	v, ok := RSI(falling, 14)
	if !ok {
		t.Fatal("expected RSI present")
	}
	if math.Abs(v) > tol {
		t.Errorf("falling series: got %.6f, want 0", v)
	}
}

func TestRSI_KnownSequence(t *testing.T) {
	// period=2, prices 1,2,3,1 → deltas 1,1,-2; window [1,-2]:
	// avgGain=0.5, avgLoss=1, rs=0.5, rsi=100-100/1.5
	v, ok := RSI([]float64{1, 2, 3, 1}, 2)
	if !ok {
		t.Fatal("expected RSI present")
	}
	want := 100.0 - 100.0/1.5
	if math.Abs(v-want) > tol {
		t.Errorf("got %.6f, want %.6f", v, want)
	}
}

func TestRSI_BalancedGainsAndLosses(t *testing.T) {
	// Alternating +1/-1 deltas over the window: avgGain == avgLoss → RSI 50.
	prices := []float64{100}
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			prices = append(prices, prices[len(prices)-1]+1)
		} else {
			prices = append(prices, prices[len(prices)-1]-1)
		}
	}
	v, ok := RSI(prices, 14)
	if !ok {
		t.Fatal("expected RSI present")
	}
	if math.Abs(v-50) > tol {
		t.Errorf("got %.6f, want 50", v)
	}
}

func TestRSI_AlwaysInBounds(t *testing.T) {
	// Deterministic pseudo-random walk — every result with enough data
	// must land in [0,100].
	prices := []float64{500}
	seed := uint64(1)
	for i := 0; i < 200; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		step := float64(int64(seed>>33)%200-100) / 10.0
		next := prices[len(prices)-1] + step
		if next < 1 {
			next = 1
		}
		prices = append(prices, next)
	}

	for n := 15; n <= len(prices); n++ {
		v, ok := RSI(prices[:n], 14)
		if !ok {
			t.Fatalf("n=%d: expected RSI present", n)
		}
		if v < 0 || v > 100 {
			t.Fatalf("n=%d: RSI %.6f out of [0,100]", n, v)
		}
	}
}

func TestMovingAverage_InsufficientData(t *testing.T) {
	if _, ok := MovingAverage([]float64{1, 2, 3}, 4); ok {
		t.Error("MA over 3 points with period 4 should be absent")
	}
	if _, ok := MovingAverage(nil, 1); ok {
		t.Error("MA over empty series should be absent")
	}
}

func TestMovingAverage_ConstantSeries(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 7.25
	}
	for _, period := range []int{1, 7, 30, 40} {
		v, ok := MovingAverage(prices, period)
		if !ok {
			t.Fatalf("period %d: expected MA present", period)
		}
		if math.Abs(v-7.25) > tol {
			t.Errorf("period %d: got %.6f, want 7.25", period, v)
		}
	}
}

func TestMovingAverage_UsesMostRecentWindow(t *testing.T) {
	v, ok := MovingAverage([]float64{1, 2, 3, 4}, 2)
	if !ok {
		t.Fatal("expected MA present")
	}
	if math.Abs(v-3.5) > tol {
		t.Errorf("got %.6f, want 3.5 (mean of last two)", v)
	}
}

func TestCompute_ThresholdsPerIndicator(t *testing.T) {
	mk := func(n int) []float64 {
		p := make([]float64, n)
		for i := range p {
			p[i] = 100
		}
		return p
	}

	cases := []struct {
		name                       string
		n                          int
		wantRSI, wantMA7, wantMA30 bool
	}{
		{"six_points", 6, false, false, false},
		{"seven_points", 7, false, true, false},
		{"fourteen_points", 14, false, true, false},
		{"fifteen_points", 15, true, true, false},
		{"twentynine_points", 29, true, true, false},
		{"thirty_points", 30, true, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := Compute("bitcoin", mk(tc.n))
			if snap.Asset != "bitcoin" {
				t.Errorf("asset: got %q", snap.Asset)
			}
			if (snap.RSI != nil) != tc.wantRSI {
				t.Errorf("RSI present=%v, want %v", snap.RSI != nil, tc.wantRSI)
			}
			if (snap.MA7 != nil) != tc.wantMA7 {
				t.Errorf("MA7 present=%v, want %v", snap.MA7 != nil, tc.wantMA7)
			}
			if (snap.MA30 != nil) != tc.wantMA30 {
				t.Errorf("MA30 present=%v, want %v", snap.MA30 != nil, tc.wantMA30)
			}
		})
	}
}
