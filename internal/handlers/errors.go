package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"growthtrack/internal/models"
	"growthtrack/internal/service"
)

type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Outcome string `json:"outcome,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		slog.Error(logMsg, "status", status, "error", err)
	}

	respondJSON(w, status, errorBody{Error: userMsg})
}

// statusForKind maps service error kinds onto HTTP status codes
func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.ErrorValidation:
		return http.StatusBadRequest
	case service.ErrorNotFound:
		return http.StatusNotFound
	case service.ErrorRateLimited:
		return http.StatusTooManyRequests
	case service.ErrorServiceUnavailable, service.ErrorNetworkUnavailable, service.ErrorCanceled:
		return http.StatusServiceUnavailable
	case service.ErrorUnauthorized, service.ErrorUnknown:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondWithServiceError writes err using its service or validation kind
func respondWithServiceError(w http.ResponseWriter, err error) {
	var serr *service.Error
	if errors.As(err, &serr) {
		status := statusForKind(serr.Kind)
		msg := serr.Message
		if status == http.StatusInternalServerError {
			slog.Error(serr.Message, "kind", string(serr.Kind), "error", serr.Err)
			msg = ErrInternalServerError
		}
		respondJSON(w, status, errorBody{Error: msg, Kind: string(serr.Kind)})
		return
	}

	var verr models.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Kind: string(service.ErrorValidation)})
		return
	}

	respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "", err)
}
