// Package postgres implements the store interfaces over PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// Store wraps a PostgreSQL connection pool and exposes the three
// repositories backed by it.
type Store struct {
	db     *sql.DB
	Prices *PriceStore
	Rules  *RuleStore
	Users  *UserStore
}

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string, maxOpen, maxIdle int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection pool (for tests).
func NewWithDB(db *sql.DB) *Store {
	return &Store{
		db:     db,
		Prices: &PriceStore{db: db},
		Rules:  &RuleStore{db: db},
		Users:  &UserStore{db: db},
	}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS alert_rules (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			currency_symbol VARCHAR(10) NOT NULL,
			condition CHAR(1) NOT NULL,
			threshold_price NUMERIC(20, 8) NOT NULL,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id UUID PRIMARY KEY,
			currency_symbol VARCHAR(10) NOT NULL,
			price_usd NUMERIC(20, 8) NOT NULL,
			timestamp TIMESTAMP WITH TIME ZONE NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_symbol_timestamp
			ON price_history (currency_symbol, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_rules_active
			ON alert_rules (is_active) WHERE is_active`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
