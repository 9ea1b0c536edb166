package handlers

import (
	"encoding/json"
	"net/http"
)

// result is the envelope every API endpoint answers with.
type result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeResult(w http.ResponseWriter, code int, success bool, message string) {
	writeJSON(w, code, result{Success: success, Message: message})
}

// writeErr sends { "success": false, "message": message }.
func writeErr(w http.ResponseWriter, code int, message string) {
	writeResult(w, code, false, message)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
