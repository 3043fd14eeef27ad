package stubapi

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in the "error" field of error responses.
const (
	ErrCodeMissingTarget  = "missing_target"
	ErrCodeMissingPath    = "missing_path"
	ErrCodeInvalidPayload = "invalid_payload"
	ErrCodeNotFound       = "not_found"
	ErrCodeStorage        = "storage_error"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeMethod         = "method_not_allowed"
	ErrCodeInternal       = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusResponse is the body of a successful write.
type StatusResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
