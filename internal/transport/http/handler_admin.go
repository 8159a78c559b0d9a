package httptransport

import (
	"errors"
	"net/http"
	"time"

	"blackjack-casino/internal/app/account"
	"blackjack-casino/internal/store"

	"github.com/rs/zerolog/log"
)

type AdminHandlers struct {
	store store.Store
	now   func() time.Time
}

func NewAdminHandlers(st store.Store) *AdminHandlers {
	return &AdminHandlers{store: st, now: time.Now}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts := h.now().UTC().Format(time.RFC3339)
		if err := h.store.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health check: store ping failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "timestamp": ts})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "timestamp": ts})
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return account.ErrUserNotFound
	}
	return err
}
