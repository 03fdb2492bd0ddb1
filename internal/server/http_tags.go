package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/laptimer/internal/events"
	"github.com/alfredjeanlab/laptimer/internal/model"
)

// handleListTags handles GET /tags.
func (s *LapServer) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if tags == nil {
		tags = []*model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// handleUpsertTag handles POST /tags.
func (s *LapServer) handleUpsertTag(w http.ResponseWriter, r *http.Request) {
	var tag model.Tag
	if err := json.NewDecoder(r.Body).Decode(&tag); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.store.UpsertTag(r.Context(), &tag); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.logger.Info("tag saved", "uuid", tag.UUID, "name", tag.Name)
	s.publish(r.Context(), events.TopicTagUpdated, events.TagUpdated{Tag: &tag})
	writeOK(w)
}

// handleDeleteTag handles DELETE /tags/{uuid}. Deleting an absent tag succeeds.
func (s *LapServer) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	uuid := strings.TrimSpace(r.PathValue("uuid"))
	if uuid == "" {
		writeError(w, http.StatusBadRequest, "uuid is required")
		return
	}
	if err := s.store.DeleteTag(r.Context(), uuid); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.logger.Info("tag deleted", "uuid", uuid)
	s.publish(r.Context(), events.TopicTagDeleted, events.TagDeleted{UUID: uuid})
	writeOK(w)
}

// handleDeleteAllTags handles DELETE /db/tags.
func (s *LapServer) handleDeleteAllTags(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAllTags(r.Context()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.logger.Info("tag directory cleared")
	s.publish(r.Context(), events.TopicTagsCleared, events.Cleared{})
	writeOK(w)
}
