package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/routinesharing/internal/routines"
	"github.com/Lllllllleong/routinesharing/internal/services"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// partialUploadResponse reports a batch that stopped midway. Written
// documents stay in the store.
type partialUploadResponse struct {
	Error  apiError             `json:"error"`
	Result routines.BatchResult `json:"result"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

// writeFailure maps a domain error to its status and user message.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed.", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, code, routines.Notice(err))
}

func classify(err error) (int, string) {
	var (
		verr *routines.ValidationError
		ferr *routines.FormatError
		serr *routines.StorageError
	)
	switch {
	case errors.As(err, &verr), errors.Is(err, routines.ErrEmptyDraft):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.As(err, &ferr):
		return http.StatusBadRequest, "INVALID_BUNDLE"
	case errors.Is(err, routines.ErrAuthFailed):
		return http.StatusUnauthorized, "AUTH_FAILED"
	case errors.Is(err, routines.ErrWrongPassword):
		return http.StatusForbidden, "WRONG_PASSWORD"
	case errors.Is(err, routines.ErrSessionNotFound), errors.Is(err, routines.ErrDocumentNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, routines.ErrPasswordMismatch):
		return http.StatusConflict, "PASSWORD_MISMATCH"
	case errors.Is(err, routines.ErrAuthTimeout):
		return http.StatusGatewayTimeout, "AUTH_TIMEOUT"
	case errors.Is(err, services.ErrNoPublisher):
		return http.StatusNotImplemented, "NOT_CONFIGURED"
	case errors.As(err, &serr):
		switch serr.Kind {
		case routines.StorageUnavailable:
			return http.StatusServiceUnavailable, "UNAVAILABLE"
		case routines.StorageNotFound:
			return http.StatusNotFound, "NOT_FOUND"
		case routines.StoragePermissionDenied:
			return http.StatusInternalServerError, "PERMISSION_DENIED"
		}
		return http.StatusInternalServerError, "STORAGE_ERROR"
	}
	return http.StatusInternalServerError, "INTERNAL"
}
