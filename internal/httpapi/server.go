package httpapi

import (
	"net/http"
	"time"

	"climate-api/internal/config"
)

// NewServer wraps handler in the request logger. observer may be nil.
func NewServer(cfg config.Config, handler http.Handler, observer RequestObserver) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(handler, observer),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Leave room for a query that runs up to QueryTimeout.
		WriteTimeout: cfg.QueryTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
