package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/etfnav/backend/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps pipeline errors onto HTTP status codes
func statusFor(err error) int {
	var verr *contracts.ValidationError
	var uerr *contracts.UpstreamFetchError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &uerr):
		return http.StatusBadGateway
	case errors.Is(err, contracts.ErrNoRiskFreeData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
