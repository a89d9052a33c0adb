package handler

import (
	"net/http"

	"gradersmith/internal/app/service"
	"gradersmith/internal/common"
	"gradersmith/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	// leaderboard must register before the {userId} wildcard
	r.Get("/leaderboard", h.getLeaderboard)
	r.Get("/{userId}", h.getUserProgress)
}

func (h *ProgressHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	leaderboard, err := h.progressService.Leaderboard(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]model.LeaderboardRow{"leaderboard": leaderboard})
}

func (h *ProgressHandler) getUserProgress(w http.ResponseWriter, r *http.Request) {
	completed, err := h.progressService.Completed(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string][]string{"completed": completed})
}
