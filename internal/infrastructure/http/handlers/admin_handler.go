package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// ParkedReplayer redelivers parked projection events.
type ParkedReplayer interface {
	ReplayParked(ctx context.Context) error
}

// AdminHandler handles /admin/*. Requires the admin secret header.
type AdminHandler struct {
	replayer ParkedReplayer
	log      zerolog.Logger
}

func NewAdminHandler(replayer ParkedReplayer, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{replayer: replayer, log: log}
}

// ReplayParked handles POST /admin/projections/replay-parked.
func (h *AdminHandler) ReplayParked(w http.ResponseWriter, r *http.Request) {
	if err := h.replayer.ReplayParked(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("replay parked events failed")
		writeErr(w, http.StatusBadGateway, ErrCodeUnavailable, "replay parked events failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "replaying"})
}
