package history

import (
	"testing"
	"time"
)

func TestStore_LazyInit(t *testing.T) {
	s := New(30, 100)

	if got := s.Prices("bitcoin"); got != nil {
		t.Errorf("unseen asset prices: got %v, want nil", got)
	}
	if _, ok := s.Chart("bitcoin"); ok {
		t.Error("unseen asset chart: expected ok=false")
	}

	s.Record("bitcoin", time.Now().UTC(), 50000)
	if got := s.Prices("bitcoin"); len(got) != 1 || got[0] != 50000 {
		t.Errorf("after first record: got %v", got)
	}
}

func TestStore_IndicatorWindowCap(t *testing.T) {
	s := New(30, 100)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// 45 insertions into a 30-cap indicator window keep exactly the last 30.
	for i := 0; i < 45; i++ {
		s.Record("bitcoin", base.Add(time.Duration(i)*time.Minute), float64(i))
	}

	prices := s.Prices("bitcoin")
	if len(prices) != 30 {
		t.Fatalf("indicator window len %d, want 30", len(prices))
	}
	if prices[0] != 15 || prices[29] != 44 {
		t.Errorf("window [%v..%v], want [15..44]", prices[0], prices[29])
	}
}

func TestStore_DisplayWindowCap(t *testing.T) {
	s := New(30, 100)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 120; i++ {
		s.Record("ethereum", base.Add(time.Duration(i)*time.Minute), float64(i))
	}

	chart, ok := s.Chart("ethereum")
	if !ok {
		t.Fatal("expected chart present")
	}
	if len(chart) != 100 {
		t.Fatalf("display window len %d, want 100", len(chart))
	}
	if chart[0].Price != 20 || chart[99].Price != 119 {
		t.Errorf("window [%v..%v], want [20..119]", chart[0].Price, chart[99].Price)
	}
	// Insertion order is chronological.
	for i := 1; i < len(chart); i++ {
		if !chart[i].TS.After(chart[i-1].TS) {
			t.Fatalf("chart not chronological at %d", i)
		}
	}
}

func TestStore_IndependentAssets(t *testing.T) {
	s := New(5, 10)
	now := time.Now().UTC()

	s.Record("bitcoin", now, 50000)
	s.Record("bitcoin", now, 51000)
	s.Record("ethereum", now, 1800)

	if n := len(s.Prices("bitcoin")); n != 2 {
		t.Errorf("bitcoin len %d, want 2", n)
	}
	if n := len(s.Prices("ethereum")); n != 1 {
		t.Errorf("ethereum len %d, want 1", n)
	}

	all := s.ChartAll()
	if len(all) != 2 {
		t.Errorf("ChartAll has %d assets, want 2", len(all))
	}
}

func TestStore_DefaultCaps(t *testing.T) {
	s := New(0, -1)
	now := time.Now().UTC()
	for i := 0; i < 200; i++ {
		s.Record("bitcoin", now, float64(i))
	}
	if n := len(s.Prices("bitcoin")); n != DefaultIndicatorWindow {
		t.Errorf("indicator window %d, want %d", n, DefaultIndicatorWindow)
	}
	if n := s.Len("bitcoin"); n != DefaultDisplayWindow {
		t.Errorf("display window %d, want %d", n, DefaultDisplayWindow)
	}
}
