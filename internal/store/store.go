// Package store defines the persistence interfaces for price history,
// alert rules and users.
package store

import (
	"context"
	"time"

	"cryptoalert/internal/core"
	"github.com/shopspring/decimal"
)

// PriceStore is the append-only price history.
type PriceStore interface {
	// RecordBatch writes one point per entry, all sharing ts, as a single
	// all-or-nothing batch.
	RecordBatch(ctx context.Context, prices map[string]decimal.Decimal, ts time.Time) error

	// LatestAll returns the most recent price per currency that has at
	// least one recorded point.
	LatestAll(ctx context.Context) (map[string]decimal.Decimal, error)

	// LatestOne returns the most recent price for one currency, or
	// ErrNoPrice when none has been recorded.
	LatestOne(ctx context.Context, symbol string) (decimal.Decimal, error)

	// History returns all points observed in [from, to), ordered by
	// timestamp then symbol.
	History(ctx context.Context, from, to time.Time) ([]core.PricePoint, error)
}

// RuleUpdate carries the optional fields of a rule update; nil fields are
// left untouched.
type RuleUpdate struct {
	Symbol    *string
	Condition *core.Condition
	Threshold *decimal.Decimal
	Active    *bool
}

// RuleStore is the alert rule repository.
type RuleStore interface {
	Create(ctx context.Context, rule *core.AlertRule) error
	FindByID(ctx context.Context, id string) (*core.AlertRule, error)
	FindByUser(ctx context.Context, userID string) ([]core.AlertRule, error)
	FindAllActive(ctx context.Context) ([]core.AlertRule, error)
	Update(ctx context.Context, id string, upd RuleUpdate) error
	Delete(ctx context.Context, id string) error

	// Deactivate atomically flips active to false only if it is still
	// true, and reports whether this caller won the write. A false result
	// with nil error means another run already deactivated the rule.
	Deactivate(ctx context.Context, id string) (bool, error)
}

// UserStore resolves notification recipients.
type UserStore interface {
	CreateUser(ctx context.Context, user *core.User) error
	FindUserByID(ctx context.Context, id string) (*core.User, error)
	FindUserByEmail(ctx context.Context, email string) (*core.User, error)
}
