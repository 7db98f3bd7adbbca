package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"checkup-kiosk/internal/kiosk"
	"checkup-kiosk/internal/model"
)

var errNotFound = errors.New("not found")

func jsonResponse(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, model.ErrorResponse{Error: msg})
}

// statusFor maps the session's sentinel errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, kiosk.ErrInvalidTransition), errors.Is(err, kiosk.ErrNotOnSummary):
		return http.StatusConflict
	case errors.Is(err, kiosk.ErrNoAdvisor), errors.Is(err, kiosk.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	errorResponse(w, statusFor(err), err.Error())
}
