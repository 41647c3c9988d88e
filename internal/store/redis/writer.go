// Package redis caches the latest snapshot and publishes cycle updates
// over PubSub, so external dashboards can read current prices without
// touching the tracker process. The cache is optional: the service runs
// unchanged when no Redis address is configured.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/TCSthecoder/Scraper/internal/model"
)

const (
	latestKeyPrefix  = "coin:latest:"
	updateChannel    = "pub:coin:update"
	defaultLatestTTL = 30 * time.Minute
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Writer caches latest observations and publishes cycle updates.
type Writer struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client}, nil
}

// PublishUpdate caches each asset's latest observation and publishes the
// full update on the PubSub channel, in a single pipeline roundtrip.
// Errors are logged, never propagated — Redis being down must not affect
// the poll cycle.
func (w *Writer) PublishUpdate(ctx context.Context, update model.Update) {
	payload, err := json.Marshal(update)
	if err != nil {
		log.Printf("[redis] marshal update: %v", err)
		return
	}

	pipe := w.client.Pipeline()
	for asset := range update.Latest {
		obs := update.Latest[asset]
		pipe.Set(ctx, latestKeyPrefix+asset, obs.JSON(), defaultLatestTTL)
	}
	pipe.Publish(ctx, updateChannel, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] publish update: %v", err)
	}
}

// Run consumes updates from updateCh until ctx is cancelled or the
// channel closes.
func (w *Writer) Run(ctx context.Context, updateCh <-chan model.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updateCh:
			if !ok {
				return
			}
			w.PublishUpdate(ctx, update)
		}
	}
}

// Close closes the Redis connection.
func (w *Writer) Close() error {
	return w.client.Close()
}
