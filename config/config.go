// Package config loads the tracker configuration: tracked assets,
// currencies, alert thresholds and the poll interval come from a YAML
// file; infrastructure addresses come from environment variables. When
// the YAML file is missing, a default config is synthesized and persisted
// so the next run starts from the same file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TCSthecoder/Scraper/internal/model"
)

// AlertBounds is the YAML shape of one asset's thresholds.
type AlertBounds struct {
	High *float64 `yaml:"high,omitempty"`
	Low  *float64 `yaml:"low,omitempty"`
}

// FileConfig is the YAML document shape.
type FileConfig struct {
	Coins          []string               `yaml:"coins"`
	Currencies     []string               `yaml:"currencies"`
	CSVFile        string                 `yaml:"csv_file"`
	UpdateInterval int                    `yaml:"update_interval"` // seconds
	PriceAlerts    map[string]AlertBounds `yaml:"price_alerts"`
}

// Config is the fully resolved application configuration.
type Config struct {
	// From the YAML file
	Coins          []string
	Currencies     []string
	CSVFile        string
	UpdateInterval time.Duration
	PriceAlerts    map[string]AlertBounds

	// Infrastructure (env)
	APIBaseURL    string
	FetchTimeout  time.Duration
	ListenAddr    string
	MetricsAddr   string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	WebhookURL    string

	// History window sizes (env, defaults 30 / 100)
	IndicatorWindow int
	DisplayWindow   int
}

// Load resolves the configuration from the YAML file at path plus env
// overrides. A missing file is recovered by writing defaults; a malformed
// file is a startup error.
func Load(path string) (*Config, error) {
	fc, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Coins:          fc.Coins,
		Currencies:     fc.Currencies,
		CSVFile:        fc.CSVFile,
		UpdateInterval: time.Duration(fc.UpdateInterval) * time.Second,
		PriceAlerts:    fc.PriceAlerts,

		APIBaseURL:    getEnv("API_BASE_URL", "https://api.coingecko.com/api/v3"),
		FetchTimeout:  time.Duration(getEnvInt("FETCH_TIMEOUT_S", 10)) * time.Second,
		ListenAddr:    getEnv("LISTEN_ADDR", ":5000"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		SQLitePath:    getEnv("SQLITE_PATH", "data/observations.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		WebhookURL:    getEnv("ALERT_WEBHOOK_URL", ""),

		IndicatorWindow: getEnvInt("INDICATOR_WINDOW", 30),
		DisplayWindow:   getEnvInt("DISPLAY_WINDOW", 100),
	}

	if len(cfg.Coins) == 0 {
		return nil, fmt.Errorf("config: no coins configured in %s", path)
	}
	if len(cfg.Currencies) == 0 {
		return nil, fmt.Errorf("config: no currencies configured in %s", path)
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = 60 * time.Second
	}
	return cfg, nil
}

// loadFile reads the YAML config, synthesizing and persisting a default
// one when the file does not exist.
func loadFile(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("[config] %s not found, creating default config", path)
		fc := DefaultFileConfig()
		if werr := writeFile(path, fc); werr != nil {
			log.Printf("[config] WARNING: could not persist default config: %v", werr)
		}
		return fc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &fc, nil
}

// DefaultFileConfig returns the synthesized default configuration.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Coins: []string{
			"bitcoin", "ethereum", "binancecoin", "ripple", "cardano",
			"solana", "polkadot", "dogecoin", "avalanche-2", "polygon",
			"chainlink", "uniswap", "aave", "stellar", "cosmos", "monero",
		},
		Currencies:     []string{"usd", "eur", "gbp"},
		CSVFile:        "coin_prices.csv",
		UpdateInterval: 60,
		PriceAlerts: map[string]AlertBounds{
			"bitcoin":  {High: f(85000), Low: f(80000)},
			"ethereum": {High: f(2000), Low: f(1800)},
		},
	}
}

func writeFile(path string, fc *FileConfig) error {
	out, err := yaml.Marshal(fc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// Rules converts the configured thresholds to evaluator rules.
func (c *Config) Rules() map[string]model.AlertRule {
	rules := make(map[string]model.AlertRule, len(c.PriceAlerts))
	for asset, b := range c.PriceAlerts {
		rules[asset] = model.AlertRule{Asset: asset, High: b.High, Low: b.Low}
	}
	return rules
}

// PrimaryCurrency is the currency driving history, indicators and alerts.
// It is the first configured currency.
func (c *Config) PrimaryCurrency() string {
	return c.Currencies[0]
}

func f(v float64) *float64 { return &v }

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
	}
	return fallback
}
