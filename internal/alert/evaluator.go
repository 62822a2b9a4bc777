// Package alert decides which rules fire against the latest price snapshot.
package alert

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cryptoalert/internal/core"
	"cryptoalert/internal/notifier"
	"cryptoalert/internal/store"
)

// IsTriggered reports whether the rule's condition holds against the current
// price. Equality never triggers. An unknown condition value, which can only
// arrive from untrusted storage, evaluates to false.
func IsTriggered(rule core.AlertRule, currentPrice decimal.Decimal) bool {
	switch rule.Condition {
	case core.ConditionGreaterThan:
		return currentPrice.GreaterThan(rule.Threshold)
	case core.ConditionLessThan:
		return currentPrice.LessThan(rule.Threshold)
	default:
		return false
	}
}

// Result summarizes one evaluation run.
type Result struct {
	Checked   int `json:"alerts_checked"`
	Triggered int `json:"alerts_triggered"`
}

// Evaluator runs the active rule set against one latest-prices snapshot.
type Evaluator struct {
	rules     store.RuleStore
	prices    store.PriceStore
	users     store.UserStore
	notifiers *notifier.Registry
	log       *zap.Logger
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(rules store.RuleStore, prices store.PriceStore, users store.UserStore, notifiers *notifier.Registry, log *zap.Logger) *Evaluator {
	return &Evaluator{
		rules:     rules,
		prices:    prices,
		users:     users,
		notifiers: notifiers,
		log:       log,
	}
}

// Run takes one snapshot of the active rules and one of the latest prices,
// evaluates every rule against that same snapshot, and fires each triggered
// rule at most once.
//
// A triggered rule is deactivated with a conditional write before any
// notification is attempted; if a concurrent run already flipped the flag,
// this run skips the notification so the user receives a single mail.
// Notification failure and user-resolution failure are per-rule outcomes and
// never abort the remaining rules; the rule stays deactivated either way.
func (e *Evaluator) Run(ctx context.Context) (Result, error) {
	var res Result

	activeRules, err := e.rules.FindAllActive(ctx)
	if err != nil {
		return res, core.WrapError(core.ErrStoreFailed, err)
	}

	snapshot, err := e.prices.LatestAll(ctx)
	if err != nil {
		return res, core.WrapError(core.ErrStoreFailed, err)
	}

	for _, rule := range activeRules {
		res.Checked++

		currentPrice, ok := snapshot[rule.Symbol]
		if !ok {
			// No observation for this currency yet.
			continue
		}

		if !IsTriggered(rule, currentPrice) {
			continue
		}
		res.Triggered++

		won, err := e.rules.Deactivate(ctx, rule.ID)
		if err != nil {
			e.log.Error("failed to deactivate triggered rule",
				zap.String("rule_id", rule.ID),
				zap.Error(err),
			)
			continue
		}
		if !won {
			e.log.Info("rule already deactivated by concurrent run, skipping notification",
				zap.String("rule_id", rule.ID),
			)
			continue
		}

		e.notify(ctx, rule, currentPrice)
	}

	return res, nil
}

func (e *Evaluator) notify(ctx context.Context, rule core.AlertRule, currentPrice decimal.Decimal) {
	user, err := e.users.FindUserByID(ctx, rule.UserID)
	if err != nil {
		e.log.Warn("could not resolve rule owner, skipping notification",
			zap.String("rule_id", rule.ID),
			zap.String("user_id", rule.UserID),
			zap.Error(err),
		)
		return
	}

	alert := notifier.Alert{
		Recipient: user.Email,
		Currency:  rule.Symbol,
		Condition: rule.Condition,
		Threshold: rule.Threshold,
		Price:     currentPrice,
	}

	for name, err := range e.notifiers.SendAll(alert) {
		e.log.Error("alert notification failed",
			zap.String("notifier", name),
			zap.String("rule_id", rule.ID),
			zap.String("currency", rule.Symbol),
			zap.Error(err),
		)
	}

	e.log.Info("alert triggered",
		zap.String("rule_id", rule.ID),
		zap.String("currency", rule.Symbol),
		zap.String("condition", rule.Condition.Describe()),
		zap.String("threshold", rule.Threshold.String()),
		zap.String("price", currentPrice.String()),
	)
}
