package httpapi

import (
	"encoding/json"
	"net/http"
)

// Error is the envelope for failures answered outside any controller, such
// as router fallbacks. Controllers use the richer dtos.APIError instead;
// the code and message fields line up so clients can treat both uniformly.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError answers an Error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, code, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(&Error{Code: code, Message: message})
}
