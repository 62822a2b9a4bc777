package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cryptoalert/internal/core"
	"cryptoalert/internal/store"
)

// Exporter writes daily price history snapshots to cold storage.
type Exporter struct {
	prices  store.PriceStore
	storage Storage
	log     *zap.Logger
}

// NewExporter creates a new Exporter.
func NewExporter(prices store.PriceStore, storage Storage, log *zap.Logger) *Exporter {
	return &Exporter{
		prices:  prices,
		storage: storage,
		log:     log,
	}
}

// exportedPoint is the JSON shape of one archived observation.
type exportedPoint struct {
	Symbol    string    `json:"symbol"`
	PriceUSD  string    `json:"price_usd"`
	Timestamp time.Time `json:"timestamp"`
}

// DayKey returns the storage path for one UTC day of history.
func DayKey(day time.Time) string {
	day = day.UTC()
	return fmt.Sprintf("prices/%04d/%02d/%02d.json", day.Year(), int(day.Month()), day.Day())
}

// ExportDay writes every observation recorded during the given UTC day to the
// backend as one JSON document. Exporting an already-archived day overwrites
// the previous object.
func (e *Exporter) ExportDay(ctx context.Context, day time.Time) (int, error) {
	from := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	points, err := e.prices.History(ctx, from, to)
	if err != nil {
		return 0, core.WrapError(core.ErrStoreFailed, err)
	}
	if len(points) == 0 {
		return 0, core.WrapError(core.ErrNoData, fmt.Errorf("no observations on %s", from.Format("2006-01-02")))
	}

	exported := make([]exportedPoint, 0, len(points))
	for _, p := range points {
		exported = append(exported, exportedPoint{
			Symbol:    p.Symbol,
			PriceUSD:  p.PriceUSD.String(),
			Timestamp: p.Timestamp,
		})
	}

	data, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling export: %w", err)
	}

	key := DayKey(from)
	if err := e.storage.Write(ctx, key, data); err != nil {
		return 0, fmt.Errorf("writing archive object %s: %w", key, err)
	}

	e.log.Info("price history archived",
		zap.String("key", key),
		zap.Int("points", len(exported)),
	)
	return len(exported), nil
}
