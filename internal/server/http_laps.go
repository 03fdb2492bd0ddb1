package server

import (
	"net/http"

	"github.com/alfredjeanlab/laptimer/internal/aggregate"
	"github.com/alfredjeanlab/laptimer/internal/events"
)

// handleListLaps handles GET /laps.
func (s *LapServer) handleListLaps(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListLapRows(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregate.Results(rows))
}

// handleUnassigned handles GET /unassigned.
func (s *LapServer) handleUnassigned(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListLapRows(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregate.Unassigned(rows))
}

// handleStatus handles GET /status.
func (s *LapServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.gates.Status())
}

// handleListGates handles GET /gates.
func (s *LapServer) handleListGates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.gates.Gates())
}

// handleDeleteAllLaps handles DELETE /db/laps.
func (s *LapServer) handleDeleteAllLaps(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAllLaps(r.Context()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.logger.Info("laps cleared")
	s.publish(r.Context(), events.TopicLapsCleared, events.Cleared{})
	writeOK(w)
}
