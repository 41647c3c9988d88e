// cmd/coinwatch — Crypto price tracker service.
//
// Polls the upstream simple-price API on a fixed interval, maintains
// bounded per-asset history with derived indicators (RSI, MA-7, MA-30),
// evaluates price alerts, appends a durable CSV log, persists to SQLite,
// optionally mirrors to Redis, and serves REST + WebSocket consumers.
//
// Config: YAML file (CONFIG_PATH, default ./config.yaml — synthesized
// with defaults when missing) plus environment overrides for
// infrastructure addresses. A .env file is honoured when present.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/TCSthecoder/Scraper/config"
	"github.com/TCSthecoder/Scraper/internal/bus"
	"github.com/TCSthecoder/Scraper/internal/fetcher"
	"github.com/TCSthecoder/Scraper/internal/gateway"
	"github.com/TCSthecoder/Scraper/internal/hub"
	"github.com/TCSthecoder/Scraper/internal/metrics"
	"github.com/TCSthecoder/Scraper/internal/model"
	"github.com/TCSthecoder/Scraper/internal/notification"
	"github.com/TCSthecoder/Scraper/internal/store/csvlog"
	redisstore "github.com/TCSthecoder/Scraper/internal/store/redis"
	sqlitestore "github.com/TCSthecoder/Scraper/internal/store/sqlite"
	"github.com/TCSthecoder/Scraper/internal/tracker"
)

var processStart = time.Now()

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[coinwatch] starting...")

	if err := godotenv.Load(); err == nil {
		log.Println("[coinwatch] loaded .env")
	}

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("[coinwatch] config: %v", err)
	}
	log.Printf("[coinwatch] tracking %d coins in %v every %s",
		len(cfg.Coins), cfg.Currencies, cfg.UpdateInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	health.SetTrackedAssets(len(cfg.Coins))
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Persistence sinks behind the row fan-out ----
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("[coinwatch] data dir: %v", err)
		}
	}

	csvWriter, err := csvlog.New(cfg.CSVFile, cfg.Currencies)
	if err != nil {
		log.Fatalf("[coinwatch] csv log: %v", err)
	}
	sqliteWriter, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[coinwatch] sqlite: %v", err)
	}
	health.SetSQLiteOK(true)
	sqliteWriter.OnCommitError = func(error) { prom.SQLiteCommitErrors.Inc() }

	sinkNames := []string{"csv", "sqlite"}
	rowCh := make(chan model.LogRow, 1024)
	fan := bus.New(256)
	fan.OnDrop = func(idx int) {
		prom.SinkDropsTotal.WithLabelValues(sinkNames[idx]).Inc()
	}
	csvCh := fan.Subscribe()
	sqliteCh := fan.Subscribe()
	go fan.Run(ctx, rowCh)
	go csvWriter.Run(ctx, csvCh)
	go sqliteWriter.Run(ctx, sqliteCh)

	// ---- Poll loop ----
	h := hub.New(16)
	h.OnDrop = func() { prom.BroadcastDrops.Inc() }

	svc := tracker.New(tracker.Config{
		Interval:        cfg.UpdateInterval,
		Currencies:      cfg.Currencies,
		Rules:           cfg.Rules(),
		IndicatorWindow: cfg.IndicatorWindow,
		DisplayWindow:   cfg.DisplayWindow,
	}, fetcher.New(fetcher.Config{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.FetchTimeout,
		Assets:     cfg.Coins,
		Currencies: cfg.Currencies,
	}), h, rowCh)
	svc.SetMetrics(prom, health)
	svc.SetNotifier(buildNotifier(cfg))

	// ---- Optional Redis mirror ----
	var redisWriter *redisstore.Writer
	if cfg.RedisAddr != "" {
		redisWriter, err = redisstore.New(redisstore.WriterConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[coinwatch] redis unavailable: %v — continuing without redis", err)
			redisWriter = nil
		} else {
			health.SetRedisEnabled(true)
			go redisWriter.Run(ctx, h.Subscribe().C)
		}
	}

	// ---- HTTP + WebSocket surface ----
	gwHub := gateway.NewHub()
	gwHub.OnClientCount = func(n int) { prom.WSClients.Set(float64(n)) }
	gwHub.OnDrop = func() { prom.BroadcastDrops.Inc() }
	go gwHub.Run(ctx, h.Subscribe())

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, gwHub, svc.State(), processStart)
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		log.Printf("[coinwatch] listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[coinwatch] http server: %v", err)
		}
	}()

	// Cycle lag gauge, sampled out of band so a stalled loop still shows up.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if last := health.LastCycle(); !last.IsZero() {
					prom.CycleLag.Set(time.Since(last).Seconds())
				}
			}
		}
	}()

	trackerDone := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(trackerDone)
	}()

	// ---- Graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[coinwatch] received %s, shutting down...", sig)

	cancel()
	<-trackerDone // the in-flight cycle finishes before teardown

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)

	csvWriter.Close()
	sqliteWriter.Close()
	if redisWriter != nil {
		redisWriter.Close()
	}
	log.Println("[coinwatch] shutdown complete")
}

// buildNotifier assembles the alert fan-out: always the log, plus any
// configured webhook and Telegram backends.
func buildNotifier(cfg *config.Config) notification.Notifier {
	backends := notification.Multi{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Println("[coinwatch] webhook alerts enabled")
	}
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatID := os.Getenv("TELEGRAM_CHAT_ID")
	if botToken != "" && chatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(botToken, chatID))
		log.Println("[coinwatch] telegram alerts enabled")
	}
	if len(backends) == 1 {
		return backends[0]
	}
	return backends
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
