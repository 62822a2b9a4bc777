package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"cryptoalert/internal/core"
	"cryptoalert/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleStore is the alert rule repository.
type RuleStore struct {
	db *sql.DB
}

var _ store.RuleStore = (*RuleStore)(nil)

const ruleColumns = `id, user_id, currency_symbol, condition, threshold_price, is_active, created_at`

// Create inserts a new rule, assigning its ID and creation time.
func (s *RuleStore) Create(ctx context.Context, rule *core.AlertRule) error {
	rule.ID = uuid.New().String()
	rule.Symbol = strings.ToUpper(rule.Symbol)
	rule.Active = true
	rule.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO alert_rules (id, user_id, currency_symbol, condition, threshold_price, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		rule.ID,
		rule.UserID,
		rule.Symbol,
		string(rule.Condition),
		rule.Threshold.String(),
		rule.Active,
		rule.CreatedAt,
	)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

// FindByID returns one rule or ErrRuleNotFound.
func (s *RuleStore) FindByID(ctx context.Context, id string) (*core.AlertRule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM alert_rules WHERE id = $1`, id)

	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRuleNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	return rule, nil
}

// FindByUser returns all rules owned by a user, newest first.
func (s *RuleStore) FindByUser(ctx context.Context, userID string) ([]core.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM alert_rules WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// FindAllActive returns every rule whose active flag is set.
func (s *RuleStore) FindAllActive(ctx context.Context) ([]core.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM alert_rules WHERE is_active = TRUE`)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// Update applies the non-nil fields of upd to one rule.
func (s *RuleStore) Update(ctx context.Context, id string, upd store.RuleUpdate) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	add := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if upd.Symbol != nil {
		add("currency_symbol", strings.ToUpper(*upd.Symbol))
	}
	if upd.Condition != nil {
		add("condition", string(*upd.Condition))
	}
	if upd.Threshold != nil {
		add("threshold_price", upd.Threshold.String())
	}
	if upd.Active != nil {
		add("is_active", *upd.Active)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := `UPDATE alert_rules SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrRuleNotFound
	}
	return nil
}

// Delete removes one rule.
func (s *RuleStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrRuleNotFound
	}
	return nil
}

// Deactivate flips the active flag only if still set. The affected-row count
// decides which of two concurrent evaluation runs owns the notification.
func (s *RuleStore) Deactivate(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alert_rules SET is_active = FALSE WHERE id = $1 AND is_active = TRUE`, id)
	if err != nil {
		return false, core.WrapError(core.ErrStoreFailed, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, core.WrapError(core.ErrStoreFailed, err)
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*core.AlertRule, error) {
	var rule core.AlertRule
	var condition, threshold string

	err := row.Scan(
		&rule.ID,
		&rule.UserID,
		&rule.Symbol,
		&condition,
		&threshold,
		&rule.Active,
		&rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Condition = core.Condition(strings.TrimSpace(condition))
	if rule.Threshold, err = decimal.NewFromString(threshold); err != nil {
		return nil, err
	}
	return &rule, nil
}

func scanRules(rows *sql.Rows) ([]core.AlertRule, error) {
	var rules []core.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	return rules, nil
}
