package handlers

import (
	"encoding/json"
	"net/http"
)

// Error envelope shared by every endpoint: {"error": <code>, "message": <detail>}.
// Codes map to status: validation and conflict are 400, authorization 403,
// not_found 404.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

func validationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "validation", message)
}

func conflictError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "conflict", message)
}

func authorizationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, "authorization", message)
}

func notFoundError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, "not_found", message)
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "internal", "internal server error")
}
