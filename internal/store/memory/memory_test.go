package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cryptoalert/internal/core"
	"cryptoalert/internal/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRecordBatch_AllOrNothing(t *testing.T) {
	st := New()
	ctx := context.Background()

	err := st.RecordBatch(ctx, map[string]decimal.Decimal{
		"BTC": dec("50000"),
		"ETH": dec("-1"),
	}, time.Now().UTC())
	if err == nil {
		t.Fatal("expected error for non-positive price")
	}

	all, _ := st.LatestAll(ctx)
	if len(all) != 0 {
		t.Errorf("rejected batch must leave no rows, got %d", len(all))
	}
}

func TestLatestAll_NewestWins(t *testing.T) {
	st := New()
	ctx := context.Background()

	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	if err := st.RecordBatch(ctx, map[string]decimal.Decimal{"BTC": dec("100")}, t0); err != nil {
		t.Fatalf("RecordBatch: %v", err)
	}
	if err := st.RecordBatch(ctx, map[string]decimal.Decimal{"BTC": dec("200"), "ETH": dec("50")}, t1); err != nil {
		t.Fatalf("RecordBatch: %v", err)
	}

	all, err := st.LatestAll(ctx)
	if err != nil {
		t.Fatalf("LatestAll: %v", err)
	}
	if !all["BTC"].Equal(dec("200")) {
		t.Errorf("BTC = %s, want 200", all["BTC"])
	}
	if !all["ETH"].Equal(dec("50")) {
		t.Errorf("ETH = %s, want 50", all["ETH"])
	}
}

func TestLatestOne(t *testing.T) {
	st := New()
	ctx := context.Background()

	if _, err := st.LatestOne(ctx, "BTC"); !errors.Is(err, core.ErrNoPrice) {
		t.Errorf("expected ErrNoPrice, got %v", err)
	}

	st.RecordBatch(ctx, map[string]decimal.Decimal{"btc": dec("123.45")}, time.Now().UTC())

	price, err := st.LatestOne(ctx, "btc")
	if err != nil {
		t.Fatalf("LatestOne: %v", err)
	}
	if !price.Equal(dec("123.45")) {
		t.Errorf("price = %s", price)
	}
}

func TestHistory_HalfOpenRange(t *testing.T) {
	st := New()
	ctx := context.Background()

	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)

	st.RecordBatch(ctx, map[string]decimal.Decimal{"BTC": dec("1")}, t0)
	st.RecordBatch(ctx, map[string]decimal.Decimal{"BTC": dec("2")}, t1)
	st.RecordBatch(ctx, map[string]decimal.Decimal{"BTC": dec("3")}, t2)

	points, err := st.History(ctx, t0, t2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points in [t0, t2), got %d", len(points))
	}
	if !points[0].PriceUSD.Equal(dec("1")) || !points[1].PriceUSD.Equal(dec("2")) {
		t.Error("points out of order or wrong range")
	}
}

func TestRuleLifecycle(t *testing.T) {
	st := New()
	ctx := context.Background()

	rule := &core.AlertRule{
		UserID:    "u1",
		Symbol:    "btc",
		Condition: core.ConditionGreaterThan,
		Threshold: dec("50000"),
	}
	if err := st.Create(ctx, rule); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rule.ID == "" {
		t.Fatal("Create must assign an ID")
	}
	if !rule.Active {
		t.Error("new rules start active")
	}
	if rule.Symbol != "BTC" {
		t.Errorf("symbol not normalized: %s", rule.Symbol)
	}

	got, err := st.FindByID(ctx, rule.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.UserID != "u1" {
		t.Errorf("wrong rule: %+v", got)
	}

	newThreshold := dec("60000")
	if err := st.Update(ctx, rule.ID, store.RuleUpdate{Threshold: &newThreshold}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = st.FindByID(ctx, rule.ID)
	if !got.Threshold.Equal(newThreshold) {
		t.Errorf("threshold = %s, want 60000", got.Threshold)
	}
	if got.Condition != core.ConditionGreaterThan {
		t.Error("untouched fields must survive a partial update")
	}

	if err := st.Delete(ctx, rule.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.FindByID(ctx, rule.ID); !errors.Is(err, core.ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
	if err := st.Delete(ctx, rule.ID); !errors.Is(err, core.ErrRuleNotFound) {
		t.Errorf("double delete should report not found, got %v", err)
	}
}

func TestFindByUser_NewestFirst(t *testing.T) {
	st := New()
	ctx := context.Background()

	for _, sym := range []string{"BTC", "ETH"} {
		rule := &core.AlertRule{UserID: "u1", Symbol: sym, Condition: core.ConditionLessThan, Threshold: dec("1")}
		if err := st.Create(ctx, rule); err != nil {
			t.Fatalf("Create: %v", err)
		}
		// Creation timestamps come from the clock; force an ordering.
		time.Sleep(time.Millisecond)
	}
	st.Create(ctx, &core.AlertRule{UserID: "u2", Symbol: "ADA", Condition: core.ConditionLessThan, Threshold: dec("1")})

	rules, err := st.FindByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Symbol != "ETH" {
		t.Errorf("expected newest first, got %s", rules[0].Symbol)
	}
}

func TestDeactivate_OnlyOneWinner(t *testing.T) {
	st := New()
	ctx := context.Background()

	rule := &core.AlertRule{UserID: "u1", Symbol: "BTC", Condition: core.ConditionGreaterThan, Threshold: dec("1")}
	st.Create(ctx, rule)

	won, err := st.Deactivate(ctx, rule.ID)
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if !won {
		t.Fatal("first deactivation should win")
	}

	won, err = st.Deactivate(ctx, rule.ID)
	if err != nil {
		t.Fatalf("second Deactivate: %v", err)
	}
	if won {
		t.Error("second deactivation must not win")
	}

	if _, err := st.Deactivate(ctx, "missing"); !errors.Is(err, core.ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestUserStore(t *testing.T) {
	st := New()
	ctx := context.Background()

	user := &core.User{Email: "alice@example.com", PasswordHash: "hash"}
	if err := st.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == "" {
		t.Fatal("CreateUser must assign an ID")
	}

	byID, err := st.FindUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindUserByID: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("wrong user: %+v", byID)
	}

	byEmail, err := st.FindUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Error("lookup by email returned a different user")
	}

	if _, err := st.FindUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
