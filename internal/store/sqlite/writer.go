// Package sqlite persists per-cycle observations to a local SQLite
// database, off the poll loop's hot path. Rows arrive on a channel and
// are committed in batched transactions.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/TCSthecoder/Scraper/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 500 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/observations.db"
}

// Writer is a single-goroutine SQLite writer with transaction batching.
type Writer struct {
	db *sql.DB

	// OnCommitError is called when a batch commit fails, after logging.
	OnCommitError func(err error)
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer connection pool
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS observations (
			asset      TEXT    NOT NULL,
			ts         INTEGER NOT NULL,
			currency   TEXT    NOT NULL,
			price      REAL,
			change_24h REAL,
			volume_24h REAL,
			market_cap REAL,
			rsi        REAL,
			ma_7       REAL,
			ma_30      REAL,
			PRIMARY KEY (asset, ts, currency)
		);

		CREATE INDEX IF NOT EXISTS idx_observations_ts ON observations (ts);
	`)
	return err
}

// Run reads rows from rowCh and inserts them in batched transactions.
// Flushes every batchSize rows OR every flushDelay, whichever first.
// Blocks until ctx is cancelled or rowCh is closed.
func (w *Writer) Run(ctx context.Context, rowCh <-chan model.LogRow) {
	batch := make([]model.LogRow, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.insertBatch(batch); err != nil {
			log.Printf("[sqlite] batch insert error: %v", err)
			if w.OnCommitError != nil {
				w.OnCommitError(err)
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case row, ok := <-rowCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, row)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// insertBatch inserts a batch of rows in a single transaction, one record
// per (asset, currency) pair. Absent numerics are stored as NULL.
func (w *Writer) insertBatch(rows []model.LogRow) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO observations
			(asset, ts, currency, price, change_24h, volume_24h, market_cap, rsi, ma_7, ma_30)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		for currency, price := range row.Prices {
			_, err := stmt.Exec(
				row.Asset, row.TS.Unix(), currency,
				nullable(price), nullable(row.Change24h), nullable(row.Volume24h),
				nullable(row.MarketCap), nullable(row.RSI), nullable(row.MA7), nullable(row.MA30),
			)
			if err != nil {
				tx.Rollback()
				return err
			}
		}
	}

	return tx.Commit()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// CountObservations returns the number of stored records for an asset.
// Used by tests and health checks.
func (w *Writer) CountObservations(asset string) (int, error) {
	var n int
	err := w.db.QueryRow(`SELECT COUNT(*) FROM observations WHERE asset = ?`, asset).Scan(&n)
	return n, err
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
