package handlers

import (
	"encoding/json"
	"net/http"

	apperr "cookbook/internal/errors"
	applog "cookbook/internal/log"
)

const internalMessage = "Something went wrong. Please try again."

type messageResponse struct {
	Message any `json:"message"`
}

type outcomeResponse struct {
	Message string `json:"message"`
	Outcome string `json:"outcome"`
	Recipe  any    `json:"recipe,omitempty"`
}

type errorResponse struct {
	Message   string              `json:"message"`
	Code      apperr.ErrorCode    `json:"code"`
	RequestID string              `json:"request_id,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		applog.Error(r.Context(), "failed to encode response", "error", err)
	}
}

// statusFor maps an error code onto its default HTTP status.
func statusFor(code apperr.ErrorCode) int {
	switch code {
	case apperr.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case apperr.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrCodeNotFound:
		return http.StatusNotFound
	case apperr.ErrCodeConflict:
		return http.StatusConflict
	case apperr.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status derived from its code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorStatus(w, r, statusFor(apperr.CodeOf(err)), err)
}

// writeErrorStatus renders err with an explicit status. Internal errors are
// logged and their message replaced.
func writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	code := apperr.CodeOf(err)
	message := apperr.MessageOf(err, internalMessage)
	if code == apperr.ErrCodeInternal || status >= http.StatusInternalServerError {
		applog.Error(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
		if code == apperr.ErrCodeInternal {
			message = internalMessage
		}
	}
	writeJSON(w, r, status, errorResponse{
		Message:   message,
		Code:      code,
		RequestID: applog.RequestID(r.Context()),
	})
}

func writeValidation(w http.ResponseWriter, r *http.Request, fields map[string][]string) {
	applog.Debug(r.Context(), "request failed validation", "path", r.URL.Path, "fields", len(fields))
	writeJSON(w, r, http.StatusBadRequest, errorResponse{
		Message:   "Invalid request.",
		Code:      apperr.ErrCodeInvalidRequest,
		RequestID: applog.RequestID(r.Context()),
		Errors:    fields,
	})
}
