package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/athletiq/socialgraph/internal/logging"
	"github.com/athletiq/socialgraph/internal/models"
	"github.com/athletiq/socialgraph/internal/services"
)

type ProfileHandler struct {
	graph  services.SocialGraphInterface
	logger *logging.Logger
}

func NewProfileHandler(graph services.SocialGraphInterface, logger *logging.Logger) *ProfileHandler {
	if logger == nil {
		logger = logging.Default
	}
	return &ProfileHandler{graph: graph, logger: logger}
}

// Get returns the profile view for the requested athlete. Anonymous viewers
// are allowed; they see only what public visibility exposes.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r)
	if !ok {
		return
	}
	viewerID, _ := AthleteID(r.Context())

	view, err := h.graph.GetAthleteProfile(r.Context(), viewerID, targetID)
	if errors.Is(err, services.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "Athlete not found")
		return
	}
	if err != nil {
		h.logger.Error("Fetching profile failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := AthleteID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Athlete identity required")
		return
	}

	query := r.URL.Query().Get("q")
	if len(strings.TrimSpace(query)) < 2 {
		writeJSON(w, http.StatusOK, map[string]any{"athletes": []models.AthleteSearchResult{}})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	results, err := h.graph.SearchAthletes(r.Context(), query, viewerID, limit)
	if err != nil {
		h.logger.Error("Searching athletes failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"athletes": results})
}
