package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"mysteria-backend-go/internal/services"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

func WriteSuccess(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message})
}

// WriteServiceError maps a services.ServiceError to its status; anything else
// is a 500 with a generic message (the cause is logged by the caller).
func WriteServiceError(w http.ResponseWriter, err error) {
	var svcErr services.ServiceError
	if errors.As(err, &svcErr) {
		WriteError(w, svcErr.Status, svcErr.Message)
		return
	}
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}
