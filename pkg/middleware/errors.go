package middleware

import (
	"encoding/json"
	"net/http"

	"tork-hq/governance/pkg/pii"
)

// ErrorResponse is the JSON body of every error written by this package.
type ErrorResponse struct {
	Error     string        `json:"error"`
	ReceiptID string        `json:"receipt_id,omitempty"`
	PIITypes  []pii.PIIType `json:"pii_types,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorResponse carrying message.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}
