package handlers

import (
	"encoding/json"
	"net/http"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteContent writes the standard 200 content response.
func WriteContent(w http.ResponseWriter, content string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"content": content,
	})
}

// WriteFailure writes the uniform 500 failure shape: the error message
// plus a fixed non-technical content notice.
func WriteFailure(w http.ResponseWriter, errorMessage, content string) error {
	return WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   errorMessage,
		"content": content,
	})
}
