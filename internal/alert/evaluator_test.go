package alert

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cryptoalert/internal/core"
	"cryptoalert/internal/notifier"
	"cryptoalert/internal/store/memory"
)

type fakeNotifier struct {
	name     string
	sent     []notifier.Alert
	failures []string
	err      error
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Send(alert notifier.Alert) error {
	f.sent = append(f.sent, alert)
	return f.err
}

func (f *fakeNotifier) SendFailure(taskName, message string) error {
	f.failures = append(f.failures, taskName)
	return f.err
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestIsTriggered(t *testing.T) {
	tests := []struct {
		name      string
		condition core.Condition
		threshold string
		price     string
		want      bool
	}{
		{"above threshold", core.ConditionGreaterThan, "50000", "50000.01", true},
		{"below gt threshold", core.ConditionGreaterThan, "50000", "49999.99", false},
		{"equal never triggers gt", core.ConditionGreaterThan, "50000", "50000", false},
		{"below threshold", core.ConditionLessThan, "50000", "49999.99", true},
		{"above lt threshold", core.ConditionLessThan, "50000", "50000.01", false},
		{"equal never triggers lt", core.ConditionLessThan, "50000", "50000", false},
		{"tiny magnitude above", core.ConditionGreaterThan, "0.00001234", "0.00001235", true},
		{"tiny magnitude equal", core.ConditionGreaterThan, "0.00001234", "0.00001234", false},
		{"huge magnitude above", core.ConditionGreaterThan, "99999999.99", "100000000.00", true},
		{"huge magnitude below", core.ConditionLessThan, "100000000.00", "99999999.99", true},
		{"unknown condition", core.Condition(">="), "50000", "60000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := core.AlertRule{
				Condition: tt.condition,
				Threshold: dec(tt.threshold),
			}
			if got := IsTriggered(rule, dec(tt.price)); got != tt.want {
				t.Errorf("IsTriggered = %v, want %v", got, tt.want)
			}
		})
	}
}

func setupEvaluator(t *testing.T) (*memory.Store, *fakeNotifier, *Evaluator) {
	t.Helper()

	st := memory.New()
	fake := &fakeNotifier{name: "fake"}
	registry := notifier.NewRegistry()
	if err := registry.Register(fake); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ev := NewEvaluator(st, st, st, registry, zap.NewNop())
	return st, fake, ev
}

func createUser(t *testing.T, st *memory.Store, email string) *core.User {
	t.Helper()
	user := &core.User{Email: email, PasswordHash: "x"}
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func createRule(t *testing.T, st *memory.Store, userID, symbol string, cond core.Condition, threshold string) *core.AlertRule {
	t.Helper()
	rule := &core.AlertRule{
		UserID:    userID,
		Symbol:    symbol,
		Condition: cond,
		Threshold: dec(threshold),
	}
	if err := st.Create(context.Background(), rule); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return rule
}

func recordPrices(t *testing.T, st *memory.Store, prices map[string]string) {
	t.Helper()
	batch := make(map[string]decimal.Decimal, len(prices))
	for sym, p := range prices {
		batch[sym] = dec(p)
	}
	if err := st.RecordBatch(context.Background(), batch, time.Now().UTC()); err != nil {
		t.Fatalf("RecordBatch: %v", err)
	}
}

func TestEvaluator_Run_TriggersAndDeactivates(t *testing.T) {
	st, fake, ev := setupEvaluator(t)
	ctx := context.Background()

	user := createUser(t, st, "alice@example.com")
	rule := createRule(t, st, user.ID, "BTC", core.ConditionGreaterThan, "50000")
	recordPrices(t, st, map[string]string{"BTC": "50000.01"})

	res, err := ev.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Checked != 1 || res.Triggered != 1 {
		t.Fatalf("got checked=%d triggered=%d", res.Checked, res.Triggered)
	}

	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(fake.sent))
	}
	sent := fake.sent[0]
	if sent.Recipient != "alice@example.com" {
		t.Errorf("wrong recipient: %s", sent.Recipient)
	}
	if sent.Currency != "BTC" {
		t.Errorf("wrong currency: %s", sent.Currency)
	}

	got, err := st.FindByID(ctx, rule.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Active {
		t.Error("triggered rule should be deactivated")
	}
}

func TestEvaluator_Run_SecondRunIsNoop(t *testing.T) {
	st, fake, ev := setupEvaluator(t)
	ctx := context.Background()

	user := createUser(t, st, "bob@example.com")
	createRule(t, st, user.ID, "ETH", core.ConditionLessThan, "2000")
	recordPrices(t, st, map[string]string{"ETH": "1999.99"})

	if _, err := ev.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	res, err := ev.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Checked != 0 || res.Triggered != 0 {
		t.Errorf("second run should see no active rules, got checked=%d triggered=%d", res.Checked, res.Triggered)
	}
	if len(fake.sent) != 1 {
		t.Errorf("expected exactly 1 notification across both runs, got %d", len(fake.sent))
	}
}

func TestEvaluator_Run_SkipsRuleWithoutPrice(t *testing.T) {
	st, fake, ev := setupEvaluator(t)
	ctx := context.Background()

	user := createUser(t, st, "carol@example.com")
	rule := createRule(t, st, user.ID, "SOL", core.ConditionGreaterThan, "100")

	res, err := ev.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Checked != 1 || res.Triggered != 0 {
		t.Errorf("got checked=%d triggered=%d", res.Checked, res.Triggered)
	}
	if len(fake.sent) != 0 {
		t.Error("no notification expected without a price")
	}

	got, _ := st.FindByID(ctx, rule.ID)
	if !got.Active {
		t.Error("rule without a price must stay active")
	}
}

func TestEvaluator_Run_NotTriggeredStaysActive(t *testing.T) {
	st, fake, ev := setupEvaluator(t)
	ctx := context.Background()

	user := createUser(t, st, "dave@example.com")
	rule := createRule(t, st, user.ID, "BTC", core.ConditionGreaterThan, "50000")
	recordPrices(t, st, map[string]string{"BTC": "50000"})

	res, err := ev.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Triggered != 0 {
		t.Errorf("equality must not trigger, got triggered=%d", res.Triggered)
	}
	if len(fake.sent) != 0 {
		t.Error("no notification expected")
	}

	got, _ := st.FindByID(ctx, rule.ID)
	if !got.Active {
		t.Error("untriggered rule must stay active")
	}
}

func TestEvaluator_Run_NotifyFailureStillDeactivates(t *testing.T) {
	st, fake, ev := setupEvaluator(t)
	fake.err = core.ErrNotifierFailed
	ctx := context.Background()

	user := createUser(t, st, "erin@example.com")
	rule := createRule(t, st, user.ID, "DOGE", core.ConditionLessThan, "0.10")
	recordPrices(t, st, map[string]string{"DOGE": "0.09"})

	res, err := ev.Run(ctx)
	if err != nil {
		t.Fatalf("Run should not fail on notification errors: %v", err)
	}
	if res.Triggered != 1 {
		t.Errorf("got triggered=%d", res.Triggered)
	}

	got, _ := st.FindByID(ctx, rule.ID)
	if got.Active {
		t.Error("rule must be deactivated even when notification fails")
	}
}

func TestEvaluator_Run_UnknownOwnerSkipsNotification(t *testing.T) {
	st, fake, ev := setupEvaluator(t)
	ctx := context.Background()

	rule := createRule(t, st, "no-such-user", "BTC", core.ConditionGreaterThan, "1")
	recordPrices(t, st, map[string]string{"BTC": "2"})

	res, err := ev.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Triggered != 1 {
		t.Errorf("got triggered=%d", res.Triggered)
	}
	if len(fake.sent) != 0 {
		t.Error("no notification expected for unresolvable owner")
	}

	got, _ := st.FindByID(ctx, rule.ID)
	if got.Active {
		t.Error("rule must be deactivated even without a resolvable owner")
	}
}

func TestEvaluator_Run_MixedRules(t *testing.T) {
	st, fake, ev := setupEvaluator(t)
	ctx := context.Background()

	user := createUser(t, st, "frank@example.com")
	createRule(t, st, user.ID, "BTC", core.ConditionGreaterThan, "50000") // fires
	createRule(t, st, user.ID, "BTC", core.ConditionLessThan, "40000")   // quiet
	createRule(t, st, user.ID, "ETH", core.ConditionLessThan, "3000")    // fires
	createRule(t, st, user.ID, "ADA", core.ConditionGreaterThan, "1")    // no price

	recordPrices(t, st, map[string]string{
		"BTC": "51000",
		"ETH": "2500",
	})

	res, err := ev.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Checked != 4 {
		t.Errorf("checked = %d, want 4", res.Checked)
	}
	if res.Triggered != 2 {
		t.Errorf("triggered = %d, want 2", res.Triggered)
	}
	if len(fake.sent) != 2 {
		t.Errorf("sent = %d, want 2", len(fake.sent))
	}

	active, _ := st.FindAllActive(ctx)
	if len(active) != 2 {
		t.Errorf("expected 2 rules still active, got %d", len(active))
	}
}
