package httpapi

import (
	"net/http"
)

// RegisterRoutes adds /healthz and, when metrics is non-nil, /metrics next to
// the feature routes already on mux.
func RegisterRoutes(mux *http.ServeMux, pinger Pinger, metrics http.Handler) {
	registerHealthcheck(mux, pinger)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
}
