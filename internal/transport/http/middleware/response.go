package middleware

import (
	"encoding/json"
	"net/http"
)

// errorEnvelope mirrors the handler package's error envelope so clients see
// one error shape whether a request was rejected here or by a handler.
type errorEnvelope struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: msg, ErrorCode: status})
}
