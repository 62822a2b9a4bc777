// Package memory implements the store interfaces in process memory. It backs
// tests and local runs that have no database available.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"cryptoalert/internal/core"
	"cryptoalert/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store holds prices, rules and users behind one mutex so a batch write is
// never observed half-applied.
type Store struct {
	mu     sync.RWMutex
	points []core.PricePoint
	rules  map[string]*core.AlertRule
	users  map[string]*core.User
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		rules: make(map[string]*core.AlertRule),
		users: make(map[string]*core.User),
	}
}

var (
	_ store.PriceStore = (*Store)(nil)
	_ store.RuleStore  = (*Store)(nil)
	_ store.UserStore  = (*Store)(nil)
)

// RecordBatch validates the whole batch first, then appends under the lock,
// so a rejected entry leaves no partial rows behind.
func (s *Store) RecordBatch(ctx context.Context, prices map[string]decimal.Decimal, ts time.Time) error {
	batch := make([]core.PricePoint, 0, len(prices))
	for symbol, price := range prices {
		if !price.IsPositive() {
			return core.WrapError(core.ErrStoreFailed,
				fmt.Errorf("non-positive price for %s: %s", symbol, price))
		}
		batch = append(batch, core.PricePoint{
			ID:        uuid.New().String(),
			Symbol:    strings.ToUpper(symbol),
			PriceUSD:  price,
			Timestamp: ts,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, batch...)
	return nil
}

// LatestAll returns the newest recorded price per currency. Ties on the
// timestamp are broken by insertion order, latest insert winning.
func (s *Store) LatestAll(ctx context.Context) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]core.PricePoint)
	for _, p := range s.points {
		cur, ok := latest[p.Symbol]
		if !ok || !p.Timestamp.Before(cur.Timestamp) {
			latest[p.Symbol] = p
		}
	}

	prices := make(map[string]decimal.Decimal, len(latest))
	for symbol, p := range latest {
		prices[symbol] = p.PriceUSD
	}
	return prices, nil
}

// LatestOne returns the newest recorded price for one currency.
func (s *Store) LatestOne(ctx context.Context, symbol string) (decimal.Decimal, error) {
	all, err := s.LatestAll(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	price, ok := all[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Zero, core.ErrNoPrice
	}
	return price, nil
}

// History returns all points observed in [from, to).
func (s *Store) History(ctx context.Context, from, to time.Time) ([]core.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.PricePoint
	for _, p := range s.points {
		if !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}

// Create inserts a new rule, assigning its ID and creation time.
func (s *Store) Create(ctx context.Context, rule *core.AlertRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule.ID = uuid.New().String()
	rule.Symbol = strings.ToUpper(rule.Symbol)
	rule.Active = true
	rule.CreatedAt = time.Now().UTC()

	cp := *rule
	s.rules[rule.ID] = &cp
	return nil
}

// FindByID returns one rule or ErrRuleNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*core.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[id]
	if !ok {
		return nil, core.ErrRuleNotFound
	}
	cp := *rule
	return &cp, nil
}

// FindByUser returns all rules owned by a user, newest first.
func (s *Store) FindByUser(ctx context.Context, userID string) ([]core.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.AlertRule
	for _, rule := range s.rules {
		if rule.UserID == userID {
			out = append(out, *rule)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// FindAllActive returns every rule whose active flag is set.
func (s *Store) FindAllActive(ctx context.Context) ([]core.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.AlertRule
	for _, rule := range s.rules {
		if rule.Active {
			out = append(out, *rule)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update applies the non-nil fields of upd to one rule.
func (s *Store) Update(ctx context.Context, id string, upd store.RuleUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[id]
	if !ok {
		return core.ErrRuleNotFound
	}
	if upd.Symbol != nil {
		rule.Symbol = strings.ToUpper(*upd.Symbol)
	}
	if upd.Condition != nil {
		rule.Condition = *upd.Condition
	}
	if upd.Threshold != nil {
		rule.Threshold = *upd.Threshold
	}
	if upd.Active != nil {
		rule.Active = *upd.Active
	}
	return nil
}

// Delete removes one rule.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return core.ErrRuleNotFound
	}
	delete(s.rules, id)
	return nil
}

// Deactivate flips the active flag only if still set and reports whether this
// caller performed the flip.
func (s *Store) Deactivate(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[id]
	if !ok {
		return false, core.ErrRuleNotFound
	}
	if !rule.Active {
		return false, nil
	}
	rule.Active = false
	return true, nil
}

// CreateUser inserts a new user, assigning its ID and creation time.
func (s *Store) CreateUser(ctx context.Context, user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = uuid.New().String()
	user.CreatedAt = time.Now().UTC()

	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// FindUserByID returns one user or ErrUserNotFound.
func (s *Store) FindUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// FindUserByEmail returns one user or ErrUserNotFound.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, core.ErrUserNotFound
}
