package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return New(Config{
		BaseURL:    url,
		Timeout:    2 * time.Second,
		Assets:     []string{"bitcoin", "ethereum"},
		Currencies: []string{"usd", "eur"},
	})
}

func TestFetch_ParsesFullResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "bitcoin,ethereum" {
			t.Errorf("ids: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"bitcoin": {"usd": 50000, "eur": 46000, "usd_24h_change": -1.5,
			            "usd_24h_vol": 123456789.0, "usd_market_cap": 980000000000},
			"ethereum": {"usd": 1900, "eur": 1750, "usd_24h_change": 2.1,
			             "usd_24h_vol": 456.0, "usd_market_cap": 230000000000}
		}`))
	}))
	defer srv.Close()

	got := newTestClient(srv.URL).Fetch(context.Background())
	if len(got) != 2 {
		t.Fatalf("got %d observations, want 2", len(got))
	}

	btc := got["bitcoin"]
	if btc.Prices["usd"] != 50000 || btc.Prices["eur"] != 46000 {
		t.Errorf("bitcoin prices: %v", btc.Prices)
	}
	if btc.Change24h == nil || *btc.Change24h != -1.5 {
		t.Errorf("bitcoin change: %v", btc.Change24h)
	}
	if btc.Volume24h == nil || *btc.Volume24h != 123456789.0 {
		t.Errorf("bitcoin volume: %v", btc.Volume24h)
	}
	if btc.MarketCap == nil || *btc.MarketCap != 980000000000 {
		t.Errorf("bitcoin market cap: %v", btc.MarketCap)
	}
	if btc.ObservedAt.IsZero() {
		t.Error("observed_at not set")
	}
}

func TestFetch_LenientOnMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ethereum absent entirely; bitcoin missing eur price and all extras
		w.Write([]byte(`{"bitcoin": {"usd": 50000}}`))
	}))
	defer srv.Close()

	got := newTestClient(srv.URL).Fetch(context.Background())
	if len(got) != 1 {
		t.Fatalf("got %d observations, want 1", len(got))
	}

	btc, ok := got["bitcoin"]
	if !ok {
		t.Fatal("bitcoin missing")
	}
	if _, ok := btc.Prices["eur"]; ok {
		t.Error("eur price should be absent, not zero")
	}
	if btc.Change24h != nil || btc.Volume24h != nil || btc.MarketCap != nil {
		t.Errorf("extras should be nil: %+v", btc)
	}
	if _, ok := got["ethereum"]; ok {
		t.Error("ethereum should have no entry")
	}
}

func TestFetch_NonNumericFieldIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin": {"usd": "fifty grand", "eur": 46000, "usd_24h_change": null}}`))
	}))
	defer srv.Close()

	got := newTestClient(srv.URL).Fetch(context.Background())
	btc := got["bitcoin"]
	if _, ok := btc.Prices["usd"]; ok {
		t.Error("string price should be absent")
	}
	if btc.Prices["eur"] != 46000 {
		t.Errorf("eur price: %v", btc.Prices)
	}
	if btc.Change24h != nil {
		t.Error("null change should be absent")
	}
}

func TestFetch_ErrorStatusReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if got := newTestClient(srv.URL).Fetch(context.Background()); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestFetch_TransportErrorReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	if got := newTestClient(srv.URL).Fetch(context.Background()); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestFetch_InvalidJSONReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin": {`))
	}))
	defer srv.Close()

	if got := newTestClient(srv.URL).Fetch(context.Background()); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestFetch_SelfThrottleSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin": {"usd": 1}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	ctx := context.Background()

	c.Fetch(ctx)
	start := time.Now()
	c.Fetch(ctx)
	if spacing := time.Since(start); spacing < 900*time.Millisecond {
		t.Errorf("second fetch after %v, want ≥ ~1s spacing", spacing)
	}
}
