package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/passtalk/passtalk/internal/middleware"
	"github.com/passtalk/passtalk/internal/model"
	"github.com/passtalk/passtalk/internal/store"
	"github.com/passtalk/passtalk/pkg/logger"
)

// EntryHandler handles credential entry CRUD and search.
type EntryHandler struct {
	entries *store.Entries
	logger  *logger.Logger
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(entries *store.Entries, log *logger.Logger) *EntryHandler {
	return &EntryHandler{
		entries: entries,
		logger:  log,
	}
}

// Create handles POST /api/v1/entries
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var patch model.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateEntryPatch(&patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recordUUID, err := h.entries.Create(patch)
	if err != nil {
		h.logger.Error("failed to create entry")
		writeError(w, http.StatusInternalServerError, "failed to create entry")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"record_uuid": recordUUID})
}

// List handles GET /api/v1/entries. An optional keyword and tag turn it
// into a search.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	var tag *model.PresetTag
	if raw := r.URL.Query().Get("tag"); raw != "" {
		tag = model.ParseTag(raw)
		if tag == nil {
			writeError(w, http.StatusBadRequest, "invalid tag filter")
			return
		}
	}

	entries, err := h.entries.Search(keyword, tag)
	if err != nil {
		h.logger.Error("failed to list entries")
		writeError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}

	writeJSON(w, http.StatusOK, model.ListEntriesResponse{
		Entries: entries,
		Total:   len(entries),
	})
}

// Get handles GET /api/v1/entries/{id}
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	recordUUID := chi.URLParam(r, "id")
	if err := middleware.ValidateRecordUUID(recordUUID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.entries.Get(recordUUID)
	if err != nil {
		h.logger.Error("failed to get entry")
		writeError(w, http.StatusInternalServerError, "failed to get entry")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Update handles PUT /api/v1/entries/{id}
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	recordUUID := chi.URLParam(r, "id")
	if err := middleware.ValidateRecordUUID(recordUUID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch model.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateEntryPatch(&patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.entries.Update(recordUUID, patch); err != nil {
		h.logger.Error("failed to update entry")
		writeError(w, http.StatusInternalServerError, "failed to update entry")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"record_uuid": recordUUID})
}

// Delete handles DELETE /api/v1/entries/{id}
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	recordUUID := chi.URLParam(r, "id")
	if err := middleware.ValidateRecordUUID(recordUUID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.entries.Delete(recordUUID); err != nil {
		h.logger.Error("failed to delete entry")
		writeError(w, http.StatusInternalServerError, "failed to delete entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
