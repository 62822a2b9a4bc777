package core

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Condition is the comparison direction of an alert rule. The values match
// the single-character form stored in the database.
type Condition string

const (
	ConditionGreaterThan Condition = ">"
	ConditionLessThan    Condition = "<"
)

// IsValid reports whether c is one of the known conditions.
func (c Condition) IsValid() bool {
	return c == ConditionGreaterThan || c == ConditionLessThan
}

// Describe renders the condition for human-facing messages.
func (c Condition) Describe() string {
	switch c {
	case ConditionGreaterThan:
		return "above"
	case ConditionLessThan:
		return "below"
	default:
		return string(c)
	}
}

// PricePoint is one observed USD price for a currency. Points are append-only;
// they are never updated or deleted once recorded.
type PricePoint struct {
	ID        string
	Symbol    string
	PriceUSD  decimal.Decimal
	Timestamp time.Time
}

// AlertRule is a user's price-threshold watch on one currency.
type AlertRule struct {
	ID        string
	UserID    string
	Symbol    string
	Condition Condition
	Threshold decimal.Decimal
	Active    bool
	CreatedAt time.Time
}

// Validate checks the rule against a supported-currency set.
func (r AlertRule) Validate(currencies CurrencySet) error {
	if !currencies.Supports(r.Symbol) {
		return ErrUnsupportedCurrency
	}
	if !r.Condition.IsValid() {
		return ErrInvalidCondition
	}
	if !r.Threshold.IsPositive() {
		return ErrInvalidThreshold
	}
	return nil
}

// User is a notification recipient. Authentication lives outside this
// service; the password hash is stored but never interpreted here.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CurrencySet is the fixed set of supported currencies together with the
// provider identifier for each symbol. It is built once at startup and never
// mutated afterwards.
type CurrencySet struct {
	idBySymbol map[string]string
}

// NewCurrencySet builds a set from a symbol -> provider ID mapping. Symbols
// are normalized to uppercase.
func NewCurrencySet(symbolToID map[string]string) CurrencySet {
	m := make(map[string]string, len(symbolToID))
	for sym, id := range symbolToID {
		m[strings.ToUpper(sym)] = id
	}
	return CurrencySet{idBySymbol: m}
}

// DefaultCurrencies returns the stock supported set.
func DefaultCurrencies() CurrencySet {
	return NewCurrencySet(map[string]string{
		"BTC":  "bitcoin",
		"ETH":  "ethereum",
		"BNB":  "binancecoin",
		"XRP":  "ripple",
		"ADA":  "cardano",
		"SOL":  "solana",
		"DOGE": "dogecoin",
	})
}

// Supports reports whether the symbol is in the set (case-insensitive).
func (s CurrencySet) Supports(symbol string) bool {
	_, ok := s.idBySymbol[strings.ToUpper(symbol)]
	return ok
}

// ProviderID returns the provider identifier for a symbol.
func (s CurrencySet) ProviderID(symbol string) (string, bool) {
	id, ok := s.idBySymbol[strings.ToUpper(symbol)]
	return id, ok
}

// SymbolForID returns the symbol whose provider identifier is id.
func (s CurrencySet) SymbolForID(id string) (string, bool) {
	for sym, provID := range s.idBySymbol {
		if provID == id {
			return sym, true
		}
	}
	return "", false
}

// Symbols returns the supported symbols in sorted order.
func (s CurrencySet) Symbols() []string {
	syms := make([]string, 0, len(s.idBySymbol))
	for sym := range s.idBySymbol {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// ProviderIDs returns the provider identifiers in sorted order.
func (s CurrencySet) ProviderIDs() []string {
	ids := make([]string, 0, len(s.idBySymbol))
	for _, id := range s.idBySymbol {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of supported currencies.
func (s CurrencySet) Len() int {
	return len(s.idBySymbol)
}
