package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/consultaja/clinic-scheduling/internal/tools"
)

// invokeToolHandler runs one declared tool. A tool-level failure is still a
// 200 with ok=false: the dialogue driver needs the patient-facing message,
// not an HTTP error. Non-2xx is reserved for malformed requests and tools
// that do not exist.
func invokeToolHandler(registry *tools.Registry, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !registry.Known(name) {
			writeError(w, http.StatusNotFound, "unknown_tool", "no tool is declared with that name")
			return
		}

		var req ToolRequest
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not read body")
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		result, err := registry.Dispatch(r.Context(), name, req.Arguments)
		if err != nil {
			// Known() passed, so this is a bug, not a caller mistake.
			logger.Error().Err(err).Str("tool", name).Msg("dispatch failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "tool dispatch failed")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// listToolsHandler exposes the declared tool schema so the dialogue driver
// can build its function declarations from the same source of truth the
// registry validates against.
func listToolsHandler() http.HandlerFunc {
	type toolSpec struct {
		Name     string   `json:"name"`
		Required []string `json:"required,omitempty"`
		Optional []string `json:"optional,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		specs := make([]toolSpec, 0, len(tools.Declared))
		for _, s := range tools.Declared {
			specs = append(specs, toolSpec{Name: s.Name, Required: s.Required, Optional: s.Optional})
		}
		writeJSON(w, http.StatusOK, map[string]any{"tools": specs})
	}
}
