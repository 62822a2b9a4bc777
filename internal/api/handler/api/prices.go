// internal/api/handler/api/prices.go
package api

import (
	"errors"
	"net/http"

	"cryptoalert/internal/api/response"
	"cryptoalert/internal/core"
	"cryptoalert/internal/store"
)

// PricesHandler serves read-only price queries.
type PricesHandler struct {
	prices store.PriceStore
}

// NewPricesHandler creates a new prices handler.
func NewPricesHandler(prices store.PriceStore) *PricesHandler {
	return &PricesHandler{prices: prices}
}

// Latest returns the most recent price per currency. A symbol query parameter
// narrows the result to one currency.
func (h *PricesHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		price, err := h.prices.LatestOne(r.Context(), symbol)
		if err != nil {
			if errors.Is(err, core.ErrNoPrice) {
				response.Error(w, http.StatusNotFound, err)
				return
			}
			response.Error(w, http.StatusInternalServerError, err)
			return
		}
		response.JSON(w, http.StatusOK, map[string]any{
			"symbol":    symbol,
			"price_usd": price.String(),
		})
		return
	}

	snapshot, err := h.prices.LatestAll(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	prices := make(map[string]string, len(snapshot))
	for sym, price := range snapshot {
		prices[sym] = price.String()
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"prices": prices,
		"count":  len(prices),
	})
}
