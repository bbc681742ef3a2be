package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/athletiq/socialgraph/internal/logging"
	"github.com/athletiq/socialgraph/internal/models"
	"github.com/athletiq/socialgraph/internal/services"
)

type FeedHandler struct {
	graph  services.SocialGraphInterface
	logger *logging.Logger
}

func NewFeedHandler(graph services.SocialGraphInterface, logger *logging.Logger) *FeedHandler {
	if logger == nil {
		logger = logging.Default
	}
	return &FeedHandler{graph: graph, logger: logger}
}

func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer, ok := AthleteID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Athlete identity required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	entries, err := h.graph.GetActivityFeed(r.Context(), viewer, limit)
	if err != nil {
		h.logger.Error("Composing feed failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feed": entries})
}

type createActivityRequest struct {
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

func (h *FeedHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	viewer, ok := AthleteID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Athlete identity required")
		return
	}

	var req createActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	item, err := h.graph.CreateActivity(r.Context(), viewer, models.ActivityType(req.Type), req.Title, req.Description, req.Metadata)
	if errors.Is(err, services.ErrInvalidActivityType) {
		writeError(w, http.StatusBadRequest, "Invalid activity type")
		return
	}
	if err != nil {
		h.logger.Error("Creating activity failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

func (h *FeedHandler) AddReaction(w http.ResponseWriter, r *http.Request) {
	viewer, ok := AthleteID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Athlete identity required")
		return
	}
	itemID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Emoji == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.graph.AddReaction(r.Context(), viewer, itemID, req.Emoji)
	if err != nil {
		h.logger.Error("Adding reaction failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResult(w, result)
}
