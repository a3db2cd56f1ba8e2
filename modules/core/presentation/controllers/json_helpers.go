package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/flowcrm/flowcrm/modules/core/presentation/controllers/dtos"
	"github.com/flowcrm/flowcrm/pkg/configuration"
	"github.com/flowcrm/flowcrm/pkg/serrors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		panic(err)
	}
}

func ensureRequestID(w http.ResponseWriter, r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(configuration.Use().RequestIDHeader)
	if header == "" {
		header = "X-Request-Id"
	}

	requestID := strings.TrimSpace(r.Header.Get(header))
	if requestID == "" {
		requestID = strings.TrimSpace(w.Header().Get("X-Request-Id"))
	}
	if requestID == "" {
		requestID = uuid.NewString()
		w.Header().Set(header, requestID)
	}
	return requestID
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	writeJSON(w, status, dtos.APIError{
		Code:    code,
		Message: message,
		Meta: map[string]string{
			"request_id": ensureRequestID(w, r),
		},
	})
}

func writeValidationError(w http.ResponseWriter, r *http.Request, code string, errs serrors.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, dtos.APIError{
		Code:    code,
		Message: "validation failed",
		Fields:  errs,
		Meta: map[string]string{
			"request_id": ensureRequestID(w, r),
		},
	})
}
