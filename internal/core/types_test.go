package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCondition_IsValid(t *testing.T) {
	tests := []struct {
		cond  Condition
		valid bool
	}{
		{ConditionGreaterThan, true},
		{ConditionLessThan, true},
		{Condition(">="), false},
		{Condition("=="), false},
		{Condition(""), false},
	}

	for _, tt := range tests {
		if got := tt.cond.IsValid(); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.cond, got, tt.valid)
		}
	}
}

func TestCondition_Describe(t *testing.T) {
	if ConditionGreaterThan.Describe() != "above" {
		t.Errorf("unexpected description: %s", ConditionGreaterThan.Describe())
	}
	if ConditionLessThan.Describe() != "below" {
		t.Errorf("unexpected description: %s", ConditionLessThan.Describe())
	}
}

func TestAlertRule_Validate(t *testing.T) {
	currencies := DefaultCurrencies()

	tests := []struct {
		name    string
		rule    AlertRule
		wantErr error
	}{
		{
			name: "valid",
			rule: AlertRule{Symbol: "BTC", Condition: ConditionGreaterThan, Threshold: decimal.NewFromInt(50000)},
		},
		{
			name: "lowercase symbol accepted",
			rule: AlertRule{Symbol: "eth", Condition: ConditionLessThan, Threshold: decimal.NewFromInt(1000)},
		},
		{
			name:    "unsupported currency",
			rule:    AlertRule{Symbol: "SHIB", Condition: ConditionGreaterThan, Threshold: decimal.NewFromInt(1)},
			wantErr: ErrUnsupportedCurrency,
		},
		{
			name:    "invalid condition",
			rule:    AlertRule{Symbol: "BTC", Condition: Condition(">="), Threshold: decimal.NewFromInt(1)},
			wantErr: ErrInvalidCondition,
		},
		{
			name:    "zero threshold",
			rule:    AlertRule{Symbol: "BTC", Condition: ConditionGreaterThan, Threshold: decimal.Zero},
			wantErr: ErrInvalidThreshold,
		},
		{
			name:    "negative threshold",
			rule:    AlertRule{Symbol: "BTC", Condition: ConditionGreaterThan, Threshold: decimal.NewFromInt(-5)},
			wantErr: ErrInvalidThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate(currencies)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCurrencySet_Lookup(t *testing.T) {
	set := DefaultCurrencies()

	if set.Len() != 7 {
		t.Fatalf("expected 7 currencies, got %d", set.Len())
	}
	if !set.Supports("btc") {
		t.Error("lookup should be case-insensitive")
	}

	id, ok := set.ProviderID("DOGE")
	if !ok || id != "dogecoin" {
		t.Errorf("ProviderID(DOGE) = %q, %v", id, ok)
	}

	sym, ok := set.SymbolForID("ripple")
	if !ok || sym != "XRP" {
		t.Errorf("SymbolForID(ripple) = %q, %v", sym, ok)
	}

	if _, ok := set.ProviderID("SHIB"); ok {
		t.Error("unknown symbol should not resolve")
	}
}

func TestCurrencySet_SortedViews(t *testing.T) {
	set := NewCurrencySet(map[string]string{"eth": "ethereum", "btc": "bitcoin"})

	syms := set.Symbols()
	if len(syms) != 2 || syms[0] != "BTC" || syms[1] != "ETH" {
		t.Errorf("unexpected symbols: %v", syms)
	}

	ids := set.ProviderIDs()
	if len(ids) != 2 || ids[0] != "bitcoin" || ids[1] != "ethereum" {
		t.Errorf("unexpected provider ids: %v", ids)
	}
}
