package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"cryptoalert/internal/core"
	"cryptoalert/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceStore is the append-only price history repository.
type PriceStore struct {
	db *sql.DB
}

var _ store.PriceStore = (*PriceStore)(nil)

// RecordBatch inserts every entry inside one transaction so readers never
// observe a half-written batch.
func (s *PriceStore) RecordBatch(ctx context.Context, prices map[string]decimal.Decimal, ts time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO price_history (id, currency_symbol, price_usd, timestamp)
		VALUES ($1, $2, $3, $4)
	`
	for symbol, price := range prices {
		_, err := tx.ExecContext(ctx, query,
			uuid.New().String(),
			strings.ToUpper(symbol),
			price.String(),
			ts,
		)
		if err != nil {
			return core.WrapError(core.ErrStoreFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

// LatestAll returns the newest recorded price per currency.
func (s *PriceStore) LatestAll(ctx context.Context) (map[string]decimal.Decimal, error) {
	const query = `
		SELECT DISTINCT ON (currency_symbol) currency_symbol, price_usd
		FROM price_history
		ORDER BY currency_symbol, timestamp DESC, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()

	prices := make(map[string]decimal.Decimal)
	for rows.Next() {
		var symbol, raw string
		if err := rows.Scan(&symbol, &raw); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		prices[symbol] = price
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	return prices, nil
}

// LatestOne returns the newest recorded price for one currency.
func (s *PriceStore) LatestOne(ctx context.Context, symbol string) (decimal.Decimal, error) {
	const query = `
		SELECT price_usd FROM price_history
		WHERE currency_symbol = $1
		ORDER BY timestamp DESC, id LIMIT 1
	`

	var raw string
	err := s.db.QueryRowContext(ctx, query, strings.ToUpper(symbol)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, core.ErrNoPrice
	}
	if err != nil {
		return decimal.Zero, core.WrapError(core.ErrStoreFailed, err)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, core.WrapError(core.ErrStoreFailed, err)
	}
	return price, nil
}

// History returns all points observed in [from, to).
func (s *PriceStore) History(ctx context.Context, from, to time.Time) ([]core.PricePoint, error) {
	const query = `
		SELECT id, currency_symbol, price_usd, timestamp
		FROM price_history
		WHERE timestamp >= $1 AND timestamp < $2
		ORDER BY timestamp, currency_symbol
	`

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()

	var points []core.PricePoint
	for rows.Next() {
		var p core.PricePoint
		var raw string
		if err := rows.Scan(&p.ID, &p.Symbol, &raw, &p.Timestamp); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		if p.PriceUSD, err = decimal.NewFromString(raw); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	return points, nil
}
