package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gradersmith/internal/api/middleware"
	"gradersmith/internal/app/service"
	"gradersmith/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
	retryAfterSecs    int
}

func NewSubmissionHandler(submissionService *service.SubmissionService, retryAfterSecs int) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService, retryAfterSecs: retryAfterSecs}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Post("/submit", h.submit)
	})
	r.Get("/user/{userId}", h.getByUser)
	r.Get("/latest/{userId}/{problemId}", h.getLatest)
	r.Get("/{submissionId}", h.getSubmission)
}

func (h *SubmissionHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	// The authenticated user owns the submission regardless of what the
	// body claims.
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		req.UserID = userID
	}

	submission, err := h.submissionService.Submit(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, submission)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	submission, err := h.submissionService.GetStatus(r.Context(), chi.URLParam(r, "submissionId"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if submission == nil {
		common.RespondWithError(w, http.StatusNotFound, "Submission not found")
		return
	}
	// The server owns the poll cadence: tell in-flight pollers when to
	// come back.
	if !submission.Status.IsTerminal() {
		w.Header().Set("Retry-After", strconv.Itoa(h.retryAfterSecs))
	}
	common.RespondWithJSON(w, http.StatusOK, submission)
}

func (h *SubmissionHandler) getByUser(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.submissionService.GetByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submissions)
}

func (h *SubmissionHandler) getLatest(w http.ResponseWriter, r *http.Request) {
	submission, err := h.submissionService.GetLatest(r.Context(),
		chi.URLParam(r, "userId"), chi.URLParam(r, "problemId"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if submission == nil {
		common.RespondWithError(w, http.StatusNotFound, "No submission for this user and problem")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submission)
}
