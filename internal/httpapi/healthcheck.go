package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"climate-api/internal/utils"
)

// Pinger checks that the dataset answers queries.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthchecker struct {
	pinger Pinger
}

func (h *healthchecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func registerHealthcheck(mux *http.ServeMux, pinger Pinger) {
	h := &healthchecker{pinger: pinger}
	mux.HandleFunc("GET /healthz", h.handleHealthz)
}
