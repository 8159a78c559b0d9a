package httptransport

import (
	"net/http"
	"strings"

	"blackjack-casino/internal/app/apperr"
	"blackjack-casino/internal/app/history"
	"blackjack-casino/internal/app/play"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type GameHandlers struct {
	play        *play.Service
	history     *history.Service
	requireAuth bool
}

func NewGameHandlers(playSvc *play.Service, historySvc *history.Service, requireAuth bool) *GameHandlers {
	return &GameHandlers{play: playSvc, history: historySvc, requireAuth: requireAuth}
}

type gameResponse struct {
	Success bool `json:"success"`
	*play.Result
}

type gameViewResponse struct {
	Success bool           `json:"success"`
	Game    *play.GameView `json:"game"`
}

// Play deals a new game. Any other moveType is applied to gameId, so older
// clients can drive a whole game through this one endpoint.
func (h *GameHandlers) Play() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID    string          `json:"userId"`
			BetAmount decimal.Decimal `json:"betAmount"`
			MoveType  string          `json:"moveType"`
			GameID    string          `json:"gameId"`
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
		move := strings.ToLower(strings.TrimSpace(body.MoveType))
		if move != "" && move != "deal" {
			if body.GameID == "" {
				WriteHTTPError(w, http.StatusBadRequest, apperr.CodeInvalidRequest, "gameId is required for moveType "+move)
				return
			}
			h.act(w, r, userID, body.GameID, move)
			return
		}
		res, err := h.play.Deal(r.Context(), userID, body.BetAmount)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		metricGamesDealt.Add(1)
		if res.Settled {
			metricGamesSettled.Add(1)
		}
		writeJSON(w, http.StatusOK, gameResponse{Success: true, Result: res})
	}
}

func (h *GameHandlers) Action() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameID string `json:"gameId"`
			Action string `json:"action"`
			UserID string `json:"userId"`
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
		h.act(w, r, userID, body.GameID, body.Action)
	}
}

func (h *GameHandlers) act(w http.ResponseWriter, r *http.Request, userID, gameID, action string) {
	res, err := h.play.Act(r.Context(), userID, gameID, action)
	if err != nil {
		metricGameActionErrors.Add(1)
		WriteError(w, r, err)
		return
	}
	metricGameActions.Add(1)
	if res.Settled {
		metricGamesSettled.Add(1)
	}
	writeJSON(w, http.StatusOK, gameResponse{Success: true, Result: res})
}

func (h *GameHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := ActingUser(r, r.URL.Query().Get("userId"), h.requireAuth)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		view, err := h.play.Get(r.Context(), userID, chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gameViewResponse{Success: true, Game: view})
	}
}

func (h *GameHandlers) Active() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := ActingUser(r, r.URL.Query().Get("userId"), h.requireAuth)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		if userID == "" {
			WriteHTTPError(w, http.StatusBadRequest, apperr.CodeInvalidRequest, "userId is required")
			return
		}
		view, err := h.play.Active(r.Context(), userID)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, gameViewResponse{Success: true, Game: view})
	}
}

func (h *GameHandlers) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := ActingUser(r, r.URL.Query().Get("userId"), h.requireAuth)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		filter, err := history.ParseFilter(r.URL.Query().Get("resultFilter"))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		resp, err := h.history.Query(r.Context(), history.Query{
			UserID: userID,
			Result: filter,
			Page:   queryInt(r, "page"),
			Limit:  queryInt(r, "limit"),
		})
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
			*history.Response
		}{Success: true, Response: resp})
	}
}
