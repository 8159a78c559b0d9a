// Package apperr maps domain sentinel errors to transport status codes and
// client-facing codes. HTTP and MCP share the table.
package apperr

import (
	"errors"
	"net/http"

	"blackjack-casino/internal/app/account"
	"blackjack-casino/internal/app/history"
	"blackjack-casino/internal/app/play"
	"blackjack-casino/internal/app/shop"
	"blackjack-casino/internal/auth"
	"blackjack-casino/internal/game"
	"blackjack-casino/internal/ledger"
)

const (
	CodeInvalidJSON    = "invalid_json"
	CodeInvalidRequest = "invalid_request"
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal_error"
)

// Identity errors raised by transports before a service is called.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Mapped is the transport view of an error.
type Mapped struct {
	Status  int
	Code    string
	Message string
}

// Map classifies err. Unknown errors become internal_error; callers log them.
func Map(err error) Mapped {
	switch {
	case err == nil:
		return Mapped{http.StatusInternalServerError, CodeInternal, "unknown error"}
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return Mapped{http.StatusBadRequest, "insufficient_balance", "insufficient balance"}
	case errors.Is(err, ledger.ErrInvalidAmount):
		return Mapped{http.StatusBadRequest, CodeInvalidRequest, "amount must be non-zero and keep the balance non-negative"}
	case errors.Is(err, game.ErrInvalidBet):
		return Mapped{http.StatusBadRequest, "invalid_bet", "bet amount must be positive"}
	case errors.Is(err, game.ErrInvalidAction):
		return Mapped{http.StatusBadRequest, "invalid_action", "action is not allowed in the current game state"}
	case errors.Is(err, game.ErrGameSettled):
		return Mapped{http.StatusBadRequest, "game_settled", "game is already settled"}
	case errors.Is(err, play.ErrActiveGame):
		return Mapped{http.StatusConflict, "active_game_exists", "finish the current game before dealing a new one"}
	case errors.Is(err, play.ErrGameNotFound):
		return Mapped{http.StatusNotFound, "game_not_found", "game not found"}
	case errors.Is(err, ErrForbidden):
		return Mapped{http.StatusForbidden, CodeForbidden, "userId does not match the authenticated user"}
	case errors.Is(err, play.ErrForbidden):
		return Mapped{http.StatusForbidden, CodeForbidden, "game belongs to another user"}
	case errors.Is(err, play.ErrUserNotFound),
		errors.Is(err, account.ErrUserNotFound),
		errors.Is(err, shop.ErrUserNotFound):
		return Mapped{http.StatusNotFound, "user_not_found", "user not found"}
	case errors.Is(err, shop.ErrItemNotFound):
		return Mapped{http.StatusBadRequest, "item_not_found", "invalid item: not found"}
	case errors.Is(err, shop.ErrInvalidQuantity):
		return Mapped{http.StatusBadRequest, "invalid_quantity", "invalid quantity"}
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, account.ErrUnauthorized),
		errors.Is(err, ErrUnauthorized):
		return Mapped{http.StatusUnauthorized, CodeUnauthorized, "authentication required"}
	case errors.Is(err, auth.ErrInvalidAddress):
		return Mapped{http.StatusBadRequest, CodeInvalidRequest, "invalid wallet address"}
	case errors.Is(err, history.ErrInvalidFilter):
		return Mapped{http.StatusBadRequest, CodeInvalidRequest, "resultFilter must be one of all, win, lose, push, blackjack"}
	case errors.Is(err, play.ErrInvalidRequest),
		errors.Is(err, history.ErrInvalidRequest),
		errors.Is(err, shop.ErrInvalidRequest),
		errors.Is(err, account.ErrInvalidRequest):
		return Mapped{http.StatusBadRequest, CodeInvalidRequest, "invalid request"}
	default:
		return Mapped{http.StatusInternalServerError, CodeInternal, "internal error"}
	}
}
