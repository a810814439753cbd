package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/views"
	"github.com/zhangshi0512/FactsHub/interfaces/http/rest/middleware"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(logger *zap.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError maps an engine error onto a status code.
func respondError(logger *zap.Logger, w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Warn("request failed", zap.String("code", code), zap.Error(err))
	}
	respondJSON(logger, w, status, ErrorResponse{
		Error:   true,
		Code:    code,
		Message: apperrors.UserMessage(err),
	})
}

func respondBadRequest(logger *zap.Logger, w http.ResponseWriter, message string) {
	respondJSON(logger, w, http.StatusBadRequest, ErrorResponse{
		Error:   true,
		Code:    "BAD_REQUEST",
		Message: message,
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrVoteInFlight):
		return http.StatusConflict, "VOTE_IN_FLIGHT"
	case errors.Is(err, apperrors.ErrSuperseded):
		return http.StatusConflict, "SUPERSEDED"
	case errors.Is(err, views.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, apperrors.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "REMOTE_UNAVAILABLE"
	}

	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest, string(apperrors.ErrorTypeValidation)
	case apperrors.ErrorTypeAuthorization:
		return http.StatusForbidden, string(apperrors.ErrorTypeAuthorization)
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound, string(apperrors.ErrorTypeNotFound)
	case apperrors.ErrorTypeFetch:
		return http.StatusBadGateway, string(apperrors.ErrorTypeFetch)
	case apperrors.ErrorTypeMutation:
		return http.StatusBadGateway, string(apperrors.ErrorTypeMutation)
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func sessionOrFail(logger *zap.Logger, w http.ResponseWriter, r *http.Request) (*views.Session, bool) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		respondBadRequest(logger, w, "missing session")
	}
	return session, ok
}
