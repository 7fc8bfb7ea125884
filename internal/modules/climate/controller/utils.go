package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"climate-api/internal/modules/climate/service"
	"climate-api/internal/utils"
)

const (
	msgQueryFailed   = "failed to query dataset"
	msgQueryTimedOut = "query timed out"

	// statusClientClosedRequest is recorded when the client disconnects before
	// the query finishes.
	statusClientClosedRequest = 499
)

// writeServiceError maps a service error onto a status code. Only validation
// messages reach the client verbatim.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, context.Canceled):
		slog.Debug(op+": request cancelled", "path", r.URL.Path, "error", err)
		w.WriteHeader(statusClientClosedRequest)
	case errors.Is(err, context.DeadlineExceeded):
		slog.Error(op+": query timed out", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgQueryTimedOut)
	default:
		slog.Error(op+": query failed", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, msgQueryFailed)
	}
}
