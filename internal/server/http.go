package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alfredjeanlab/laptimer/internal/model"
)

// Credentials guard the tag directory and the reset routes. An empty
// Username disables auth.
type Credentials struct {
	Username string
	Password string
}

// NewHTTPHandler returns an http.Handler with all routes registered.
func (s *LapServer) NewHTTPHandler(creds Credentials) http.Handler {
	protect := func(h http.HandlerFunc) http.Handler {
		return BasicAuthMiddleware(creds, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /laps", s.handleListLaps)
	mux.HandleFunc("GET /laps/stream", s.handleEventStream)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /gates", s.handleListGates)
	mux.HandleFunc("GET /unassigned", s.handleUnassigned)
	mux.Handle("GET /tags", protect(s.handleListTags))
	mux.Handle("POST /tags", protect(s.handleUpsertTag))
	mux.Handle("DELETE /tags/{uuid}", protect(s.handleDeleteTag))
	mux.Handle("DELETE /db/laps", protect(s.handleDeleteAllLaps))
	mux.Handle("DELETE /db/tags", protect(s.handleDeleteAllTags))

	return RecoveryMiddleware(s.logger, LoggingMiddleware(s.logger, mux))
}

// handleHealth handles GET /health.
func (s *LapServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeOK writes the body returned by successful mutations.
func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeStoreError maps validation failures to 400 and everything else to 500.
func (s *LapServer) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr model.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	s.logger.Error("store operation failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}
