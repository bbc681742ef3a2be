package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/athletiq/socialgraph/internal/logging"
	"github.com/athletiq/socialgraph/internal/services"
)

// SocialHandler exposes the relationship operations of the social graph
// facade.
type SocialHandler struct {
	graph  services.SocialGraphInterface
	logger *logging.Logger
}

func NewSocialHandler(graph services.SocialGraphInterface, logger *logging.Logger) *SocialHandler {
	if logger == nil {
		logger = logging.Default
	}
	return &SocialHandler{graph: graph, logger: logger}
}

type targetRequest struct {
	AthleteID string `json:"athlete_id"`
}

func (h *SocialHandler) viewer(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := AthleteID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Athlete identity required")
		return uuid.Nil, false
	}
	return id, true
}

func (h *SocialHandler) decodeTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return uuid.Nil, false
	}
	target, err := uuid.Parse(req.AthleteID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid athlete ID")
		return uuid.Nil, false
	}
	return target, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *SocialHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	target, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	result, err := h.graph.SendFriendRequest(r.Context(), viewer, target)
	if err != nil {
		h.logger.Error("Sending friend request failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResult(w, result)
}

func (h *SocialHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.graph.AcceptFriendRequest(r.Context(), requestID, viewer)
	if err != nil {
		h.logger.Error("Accepting friend request failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResult(w, result)
}

func (h *SocialHandler) DeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.graph.DeclineFriendRequest(r.Context(), requestID, viewer)
	if err != nil {
		h.logger.Error("Declining friend request failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResult(w, result)
}

func (h *SocialHandler) CancelFriendRequest(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.graph.CancelFriendRequest(r.Context(), requestID, viewer)
	if err != nil {
		h.logger.Error("Cancelling friend request failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResult(w, result)
}

func (h *SocialHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	connectionID, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.graph.RemoveFriend(r.Context(), viewer, connectionID)
	if err != nil {
		h.logger.Error("Removing friend failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResult(w, result)
}

func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	target, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	result, err := h.graph.FollowAthlete(r.Context(), viewer, target)
	if err != nil {
		h.logger.Error("Following athlete failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResult(w, result)
}

func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	target, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	result, err := h.graph.UnfollowAthlete(r.Context(), viewer, target)
	if err != nil {
		h.logger.Error("Unfollowing athlete failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResult(w, result)
}

func (h *SocialHandler) Block(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	target, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	result, err := h.graph.BlockAthlete(r.Context(), viewer, target)
	if err != nil {
		h.logger.Error("Blocking athlete failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResult(w, result)
}

func (h *SocialHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	target, ok := h.decodeTarget(w, r)
	if !ok {
		return
	}

	result, err := h.graph.UnblockAthlete(r.Context(), viewer, target)
	if err != nil {
		h.logger.Error("Unblocking athlete failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResult(w, result)
}

func (h *SocialHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	friends, err := h.graph.GetFriends(r.Context(), viewer)
	if err != nil {
		h.logger.Error("Listing friends failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"friends": friends})
}

func (h *SocialHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	requests, err := h.graph.GetPendingFriendRequests(r.Context(), viewer)
	if err != nil {
		h.logger.Error("Listing pending requests failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *SocialHandler) ListSentRequests(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	requests, err := h.graph.GetSentFriendRequests(r.Context(), viewer)
	if err != nil {
		h.logger.Error("Listing sent requests failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *SocialHandler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	blocked, err := h.graph.GetBlockedAthletes(r.Context(), viewer)
	if err != nil {
		h.logger.Error("Listing blocked athletes failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocked": blocked})
}
