package rest

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Error codes returned to the booking page.
const (
	CodeInvalidData          = "INVALID_DATA"
	CodeUserDoesNotExist     = "USER_DOES_NOT_EXIST"
	CodeDateInPast           = "DATE_IN_PAST"
	CodeUserNotAvailable     = "USER_NOT_AVAILABLE"
	CodeSlotConflict         = "SLOT_CONFLICT"
	CodeUsernameAlreadyTaken = "USERNAME_ALREADY_TAKEN"
)

// WriteError encodes body as JSON with the given status.
func WriteError(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encodeErr := json.NewEncoder(w).Encode(body)
	if encodeErr != nil {
		http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
	}
}

// WriteJSON encodes body as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
