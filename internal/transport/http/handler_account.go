package httptransport

import (
	"errors"
	"net/http"

	"blackjack-casino/internal/app/account"
	"blackjack-casino/internal/app/apperr"
	"blackjack-casino/internal/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type AccountHandlers struct {
	account     *account.Service
	ledger      *ledger.Ledger
	requireAuth bool
}

func NewAccountHandlers(accountSvc *account.Service, led *ledger.Ledger, requireAuth bool) *AccountHandlers {
	return &AccountHandlers{account: accountSvc, ledger: led, requireAuth: requireAuth}
}

type userResponse struct {
	Success bool `json:"success"`
	*account.UserView
}

func (h *AccountHandlers) WalletLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			WalletAddress string `json:"walletAddress"`
			Signature     string `json:"signature"`
		}
		if _, err := decodeBody(r, &body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, apperr.CodeInvalidJSON, "request body must be JSON")
			return
		}
		if body.WalletAddress == "" {
			WriteHTTPError(w, http.StatusBadRequest, apperr.CodeInvalidRequest, "walletAddress is required")
			return
		}
		resp, err := h.account.Login(r.Context(), body.WalletAddress, body.Signature)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		metricWalletLogins.Add(1)
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AccountHandlers) DemoWallets() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.account.DemoWallets())
	}
}

// CurrentUser returns the token's user, the userId query user, or the demo
// user when neither is given.
func (h *AccountHandlers) CurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := ActingUser(r, r.URL.Query().Get("userId"), h.requireAuth)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		view, err := h.account.Current(r.Context(), userID)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{Success: true, UserView: view})
	}
}

// UpdateCurrentUser sets the balance when the body carries one and otherwise
// behaves like CurrentUser.
func (h *AccountHandlers) UpdateCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID  string           `json:"userId"`
			Balance *decimal.Decimal `json:"balance"`
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
		var view *account.UserView
		if body.Balance != nil {
			view, err = h.account.SetBalance(r.Context(), userID, *body.Balance)
		} else {
			view, err = h.account.Current(r.Context(), userID)
		}
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{Success: true, UserView: view})
	}
}

func (h *AccountHandlers) UserDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := ActingUser(r, chi.URLParam(r, "id"), false)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		limit, offset := ParsePagination(r)
		resp, err := h.account.Detail(r.Context(), userID, limit, offset)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// AdjustUser applies a signed admin correction; type becomes the note.
func (h *AccountHandlers) AdjustUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Amount decimal.Decimal `json:"amount"`
			Type   string          `json:"type"`
		}
		if ok, err := decodeBody(r, &body); err != nil || !ok {
			WriteHTTPError(w, http.StatusBadRequest, apperr.CodeInvalidJSON, "request body must be JSON")
			return
		}
		resp, err := h.account.Adjust(r.Context(), chi.URLParam(r, "id"), body.Amount, body.Type)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		metricAdminAdjustments.Add(1)
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AccountHandlers) Users() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		resp, err := h.account.List(r.Context(), limit, offset)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// VerifyLedger reports whether the user's transactions sum to the balance.
func (h *AccountHandlers) VerifyLedger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")
		err := h.ledger.Verify(r.Context(), userID)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "userId": userID, "consistent": true})
		case errors.Is(err, ledger.ErrInconsistent):
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "userId": userID, "consistent": false, "detail": err.Error()})
		default:
			WriteError(w, r, mapStoreErr(err))
		}
	}
}
