// Package handlers serves the canvas REST API.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	pkgerrors "flowcanvas/pkg/errors"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError writes an AppError as {error, message, code, details}.
// Anything else is reported as an opaque internal error.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	appErr := pkgerrors.GetAppError(err)
	if appErr == nil {
		logger.Error("Unhandled error", zap.Error(err))
		appErr = pkgerrors.NewInternalError("internal server error")
	} else if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	}

	code := appErr.Code
	if code == "" {
		code = string(appErr.Type)
	}
	body := map[string]interface{}{
		"error":   true,
		"message": appErr.Message,
		"code":    code,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	respondJSON(w, logger, pkgerrors.StatusOf(appErr), body)
}

// readBody reads a bounded request body
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, pkgerrors.NewValidationError("unreadable request body").WithCause(err)
	}
	return data, nil
}
