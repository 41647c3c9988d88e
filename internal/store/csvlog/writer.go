// Package csvlog appends one row per asset per successful poll cycle to a
// flat CSV file. The header is written once, when the file does not yet
// exist; every numeric field is either a literal or the explicit "N/A"
// marker. Nothing in-process reads the file back.
package csvlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"github.com/TCSthecoder/Scraper/internal/model"
)

// Writer appends log rows to a CSV file.
type Writer struct {
	path       string
	currencies []string
	file       *os.File
	csv        *csv.Writer
}

// New opens (or creates) the CSV log at path. The header row is written
// only when the file is new. Column order: timestamp, coin, one price
// column per configured currency, then change/volume/cap and indicators.
func New(path string, currencies []string) (*Writer, error) {
	info, statErr := os.Stat(path)
	needHeader := os.IsNotExist(statErr) || (statErr == nil && info.Size() == 0)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csvlog: open %s: %w", path, err)
	}

	w := &Writer{
		path:       path,
		currencies: currencies,
		file:       file,
		csv:        csv.NewWriter(file),
	}

	if needHeader {
		if err := w.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}

	log.Printf("[csvlog] logging to %s", path)
	return w, nil
}

func (w *Writer) writeHeader() error {
	header := []string{"timestamp", "coin"}
	for _, cur := range w.currencies {
		header = append(header, "price_"+cur)
	}
	header = append(header, "change_24h", "volume_24h", "market_cap", "rsi", "ma_7", "ma_30")
	if err := w.csv.Write(header); err != nil {
		return fmt.Errorf("csvlog: write header: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Append writes one row. Absent fields become "N/A".
func (w *Writer) Append(row model.LogRow) error {
	rec := []string{
		row.TS.Format("2006-01-02 15:04:05"),
		row.Asset,
	}
	for _, cur := range w.currencies {
		rec = append(rec, model.FormatRaw(row.Prices[cur]))
	}
	rec = append(rec,
		model.FormatRaw(row.Change24h),
		model.FormatRaw(row.Volume24h),
		model.FormatRaw(row.MarketCap),
		model.FormatField(row.RSI),
		model.FormatField(row.MA7),
		model.FormatField(row.MA30),
	)

	if err := w.csv.Write(rec); err != nil {
		return fmt.Errorf("csvlog: write row: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Run consumes rows from rowCh until ctx is cancelled or the channel
// closes. Write errors are logged, never propagated — a broken log must
// not stop the poll loop.
func (w *Writer) Run(ctx context.Context, rowCh <-chan model.LogRow) {
	for {
		select {
		case <-ctx.Done():
			return
		case row, ok := <-rowCh:
			if !ok {
				return
			}
			if err := w.Append(row); err != nil {
				log.Printf("[csvlog] append error: %v", err)
			}
		}
	}
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
