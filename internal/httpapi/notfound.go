package httpapi

import (
	"net/http"
	"strings"

	"climate-api/internal/utils"
)

// discardWriter keeps the headers and status ServeMux sets for a request no
// pattern matched and drops its plain-text body.
type discardWriter struct {
	header http.Header
	status int
}

func (d *discardWriter) Header() http.Header { return d.header }

func (d *discardWriter) WriteHeader(code int) {
	if d.status == 0 {
		d.status = code
	}
}

func (d *discardWriter) Write(b []byte) (int, error) {
	if d.status == 0 {
		d.status = http.StatusOK
	}
	return len(b), nil
}

// JSONErrors serves mux, answering unmatched paths (404) and wrong methods
// (405) with the JSON error body instead of ServeMux's plain text.
func JSONErrors(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := mux.Handler(r)
		if pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		d := &discardWriter{header: make(http.Header)}
		h.ServeHTTP(d, r)
		switch d.status {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			if allow := d.header.Get("Allow"); allow != "" {
				w.Header().Set("Allow", allow)
			}
			utils.WriteError(w, d.status, strings.ToLower(http.StatusText(d.status)))
		default:
			mux.ServeHTTP(w, r)
		}
	})
}
