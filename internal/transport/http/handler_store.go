package httptransport

import (
	"net/http"

	"blackjack-casino/internal/app/apperr"
	"blackjack-casino/internal/app/shop"
)

type StoreHandlers struct {
	shop        *shop.Service
	requireAuth bool
}

func NewStoreHandlers(shopSvc *shop.Service, requireAuth bool) *StoreHandlers {
	return &StoreHandlers{shop: shopSvc, requireAuth: requireAuth}
}

func (h *StoreHandlers) Items() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.shop.Items(r.Context())
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "items": items})
	}
}

func (h *StoreHandlers) Purchase() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID   string `json:"userId"`
			ItemID   string `json:"itemId"`
			Quantity *int   `json:"quantity"`
		}
		if _, err := decodeBody(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, apperr.CodeInvalidJSON, "request body must be JSON")
			return
		}
		userID, err := ActingUser(r, body.UserID, h.requireAuth)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		qty := 1
		if body.Quantity != nil {
			qty = *body.Quantity
		}
		res, err := h.shop.Purchase(r.Context(), userID, body.ItemID, qty)
		if err != nil {
			metricPurchaseErrors.Add(1)
			WriteError(w, r, err)
			return
		}
		metricPurchases.Add(1)
		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
			*shop.PurchaseResult
		}{Success: true, PurchaseResult: res})
	}
}
