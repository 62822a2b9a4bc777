// internal/api/handler/api/alerts.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cryptoalert/internal/api/response"
	"cryptoalert/internal/core"
	"cryptoalert/internal/store"
)

// AlertsHandler handles alert rule management requests.
type AlertsHandler struct {
	rules      store.RuleStore
	users      store.UserStore
	currencies core.CurrencySet
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(rules store.RuleStore, users store.UserStore, currencies core.CurrencySet) *AlertsHandler {
	return &AlertsHandler{rules: rules, users: users, currencies: currencies}
}

// CreateRequest is the request body for creating a rule.
type CreateRequest struct {
	UserID    string          `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Condition core.Condition  `json:"condition"`
	Threshold decimal.Decimal `json:"threshold"`
}

// UpdateRequest is the request body for updating a rule. Omitted fields are
// left untouched.
type UpdateRequest struct {
	Symbol    *string          `json:"symbol,omitempty"`
	Condition *core.Condition  `json:"condition,omitempty"`
	Threshold *decimal.Decimal `json:"threshold,omitempty"`
	Active    *bool            `json:"active,omitempty"`
}

// ruleView is the JSON shape of one rule.
type ruleView struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Symbol    string `json:"symbol"`
	Condition string `json:"condition"`
	Threshold string `json:"threshold"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

func toView(r core.AlertRule) ruleView {
	return ruleView{
		ID:        r.ID,
		UserID:    r.UserID,
		Symbol:    r.Symbol,
		Condition: string(r.Condition),
		Threshold: r.Threshold.String(),
		Active:    r.Active,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List returns all rules owned by the user named in the user_id query
// parameter.
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, errors.New("user_id query parameter is required")))
		return
	}

	rules, err := h.rules.FindByUser(r.Context(), userID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]ruleView, 0, len(rules))
	for _, rule := range rules {
		views = append(views, toView(rule))
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"alerts": views,
		"count":  len(views),
	})
}

// Create creates a new alert rule.
func (h *AlertsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	if req.UserID == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, errors.New("user_id is required")))
		return
	}

	if _, err := h.users.FindUserByID(r.Context(), req.UserID); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			response.Error(w, http.StatusNotFound, err)
			return
		}
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	rule := core.AlertRule{
		UserID:    req.UserID,
		Symbol:    strings.ToUpper(req.Symbol),
		Condition: req.Condition,
		Threshold: req.Threshold,
	}
	if err := rule.Validate(h.currencies); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	if err := h.rules.Create(r.Context(), &rule); err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusCreated, toView(rule))
}

// Get returns one rule by ID.
func (h *AlertsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	rule, err := h.rules.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrRuleNotFound) {
			response.Error(w, http.StatusNotFound, err)
			return
		}
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, toView(*rule))
}

// Update applies a partial update to one rule.
func (h *AlertsHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	if req.Symbol != nil {
		sym := strings.ToUpper(*req.Symbol)
		if !h.currencies.Supports(sym) {
			response.Error(w, http.StatusBadRequest, core.ErrUnsupportedCurrency)
			return
		}
		req.Symbol = &sym
	}
	if req.Condition != nil && !req.Condition.IsValid() {
		response.Error(w, http.StatusBadRequest, core.ErrInvalidCondition)
		return
	}
	if req.Threshold != nil && !req.Threshold.IsPositive() {
		response.Error(w, http.StatusBadRequest, core.ErrInvalidThreshold)
		return
	}

	upd := store.RuleUpdate{
		Symbol:    req.Symbol,
		Condition: req.Condition,
		Threshold: req.Threshold,
		Active:    req.Active,
	}
	if err := h.rules.Update(r.Context(), id, upd); err != nil {
		if errors.Is(err, core.ErrRuleNotFound) {
			response.Error(w, http.StatusNotFound, err)
			return
		}
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	rule, err := h.rules.FindByID(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, toView(*rule))
}

// Delete removes one rule.
func (h *AlertsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.rules.Delete(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrRuleNotFound) {
			response.Error(w, http.StatusNotFound, err)
			return
		}
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"deleted": true,
	})
}
