package api

import (
	"encoding/json"
	"net/http"
)

// ToolRequest is the body of a tool invocation. Arguments arrive as the raw
// JSON object the dialogue driver produced; each handler decodes its own.
type ToolRequest struct {
	Arguments json.RawMessage `json:"arguments"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
