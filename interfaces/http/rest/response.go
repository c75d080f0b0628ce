package rest

import (
	"encoding/json"
	"net/http"

	pkgerrors "canvas-backend/pkg/errors"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError maps domain error types onto HTTP status codes
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch pkgerrors.TypeOf(err) {
	case pkgerrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case pkgerrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case pkgerrors.ErrorTypeConflict:
		status = http.StatusConflict
	case pkgerrors.ErrorTypeProvider:
		status = http.StatusBadGateway
	case pkgerrors.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	case pkgerrors.ErrorTypePersistence:
		status = http.StatusServiceUnavailable
	}

	if status >= 500 {
		logger.Error("request failed", zap.Error(err))
	}
	respondJSON(w, status, errorBody{Error: err.Error(), Type: string(pkgerrors.TypeOf(err))})
}
