// Package fetcher talks to the upstream simple-price API. The upstream is
// treated as untrusted: any transport error, non-2xx status or missing
// field degrades to an empty result or an absent value — a failed fetch is
// never surfaced to the caller as an error, and retry cadence is left
// entirely to the poll loop's fixed interval.
package fetcher

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/TCSthecoder/Scraper/internal/model"
)

// Config holds the fetcher settings.
type Config struct {
	// BaseURL of the price API, e.g. "https://api.coingecko.com/api/v3".
	BaseURL string

	// Timeout bounds a single request so a hung upstream cannot delay the
	// next poll cycle. Defaults to 10s; keep it below the poll interval.
	Timeout time.Duration

	Assets     []string
	Currencies []string
}

func (c *Config) defaults() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
}

// Client fetches price observations with a 1 rps self-throttle on top of
// the outer poll interval, respecting upstream rate limits.
type Client struct {
	http       *resty.Client
	limiter    *rate.Limiter
	assets     []string
	currencies []string
	primary    string
}

// New creates a price API client.
func New(cfg Config) *Client {
	cfg.defaults()
	httpc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:       httpc,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		assets:     cfg.Assets,
		currencies: cfg.Currencies,
		primary:    cfg.Currencies[0],
	}
}

// Fetch queries current prices for all configured assets. On any failure
// it logs and returns an empty map — "no update this cycle", never fatal.
// Assets missing from the response simply have no entry in the result.
func (c *Client) Fetch(ctx context.Context) map[string]model.PriceObservation {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                 strings.Join(c.assets, ","),
			"vs_currencies":       strings.Join(c.currencies, ","),
			"include_24hr_change": "true",
			"include_24hr_vol":    "true",
			"include_market_cap":  "true",
		}).
		Get("/simple/price")
	if err != nil {
		log.Printf("[fetcher] request failed: %v", err)
		return nil
	}
	if resp.IsError() {
		log.Printf("[fetcher] upstream returned %d: %s", resp.StatusCode(), resp.String())
		return nil
	}

	return c.parse(resp.Body(), time.Now().UTC())
}

// parse extracts observations leniently: a missing field yields an absent
// value, not a parse failure.
func (c *Client) parse(body []byte, observedAt time.Time) map[string]model.PriceObservation {
	if !gjson.ValidBytes(body) {
		log.Printf("[fetcher] invalid JSON response")
		return nil
	}

	out := make(map[string]model.PriceObservation, len(c.assets))
	doc := gjson.ParseBytes(body)

	for _, asset := range c.assets {
		node := doc.Get(escapePath(asset))
		if !node.Exists() || !node.IsObject() {
			continue
		}

		prices := make(map[string]float64, len(c.currencies))
		for _, cur := range c.currencies {
			if v := node.Get(cur); v.Exists() && v.Type == gjson.Number {
				prices[cur] = v.Float()
			}
		}

		out[asset] = model.PriceObservation{
			Asset:      asset,
			Prices:     prices,
			Change24h:  optFloat(node.Get(c.primary + "_24h_change")),
			Volume24h:  optFloat(node.Get(c.primary + "_24h_vol")),
			MarketCap:  optFloat(node.Get(c.primary + "_market_cap")),
			ObservedAt: observedAt,
		}
	}
	return out
}

func optFloat(v gjson.Result) *float64 {
	if !v.Exists() || v.Type != gjson.Number {
		return nil
	}
	f := v.Float()
	return &f
}

// escapePath escapes gjson path metacharacters in asset ids (e.g. a
// hypothetical id containing a dot).
func escapePath(asset string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(asset)
}
