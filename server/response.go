package server

import (
	"encoding/json"
	"net/http"

	"tunevault/logger"
)

// errorBody is the stable JSON error shape every failure path produces.
// Handlers never fall through to a framework plaintext error page.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeNotFound emits the single not-found shape. Missing files, traversal
// rejections and absent rows all collapse into it so the body never hints at
// filesystem structure.
func writeNotFound(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusNotFound, "not_found", message)
}
