package aipipeline

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/internal/httpserver"
	"github.com/clearvoice/feedback/pkg/auth"
	"github.com/clearvoice/feedback/pkg/feedback"
	"github.com/clearvoice/feedback/pkg/queue"
)

// Handler serves the AI-review admin endpoints (spec §6.2): duplicate
// review, usage reporting, and manual reprocess triggers.
type Handler struct {
	logger   *slog.Logger
	store    *Store
	feedback *feedback.Store
	backend  queue.Backend
}

func NewHandler(logger *slog.Logger, store *Store, feedbackStore *feedback.Store, backend queue.Backend) *Handler {
	return &Handler{logger: logger, store: store, feedback: feedbackStore, backend: backend}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ai/duplicates", h.handleListDuplicates)
	r.Post("/ai/duplicates/{id}", h.handleReviewDuplicate)
	r.Get("/feedback/{id}/duplicates", h.handleFeedbackDuplicates)
	r.Post("/ai/process", h.handleProcess)
	r.Post("/ai/process-pending", h.handleProcessPending)
	r.Get("/ai/usage", h.handleUsage)
	return r
}

func (h *Handler) handleListDuplicates(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "pending"
	}

	items, err := h.store.ListDuplicatesByStatus(r.Context(), id.WorkspaceID, status)
	if err != nil {
		h.logger.Error("listing duplicate suggestions", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to list duplicate suggestions")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) handleFeedbackDuplicates(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListDuplicatesForFeedback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("listing feedback duplicates", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to list duplicates")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"items": items})
}

type reviewRequest struct {
	Action string `json:"action" validate:"required,oneof=dismiss merge"`
}

func (h *Handler) handleReviewDuplicate(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := auth.FromContext(r.Context())
	suggestionID := chi.URLParam(r, "id")

	suggestion, err := h.store.GetDuplicate(r.Context(), id.WorkspaceID, suggestionID)
	if err != nil {
		httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "duplicate suggestion not found")
		return
	}

	if req.Action == "merge" {
		// Store.Merge re-checks target.merged_into IS NULL and the
		// ancestor-cycle condition itself, under FOR UPDATE locks inside its
		// own transaction, so there's no separate pre-check to race here.
		if err := h.feedback.Merge(r.Context(), suggestion.FeedbackID, suggestion.SuggestedDuplicateID); err != nil {
			if errors.Is(err, feedback.ErrMergeCycle) {
				httpserver.RespondError(w, http.StatusConflict, apperror.CodeConflict, "merge would create a cycle")
				return
			}
			if errors.Is(err, feedback.ErrAlreadyMerged) {
				httpserver.RespondError(w, http.StatusConflict, apperror.CodeAlreadyMerged, "feedback item is already merged")
				return
			}
			h.logger.Error("merging duplicate", "error", err)
			httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to merge")
			return
		}
	}

	status := "dismissed"
	if req.Action == "merge" {
		status = "merged"
	}
	if err := h.store.ReviewDuplicate(r.Context(), suggestionID, status, id.UserID); err != nil {
		httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "duplicate suggestion not found")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": status})
}

type processRequest struct {
	FeedbackIDs []string `json:"feedback_ids" validate:"required,min=1,max=100"`
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := auth.FromContext(r.Context())
	enqueued := 0
	for _, feedbackID := range req.FeedbackIDs {
		item, err := h.feedback.GetByID(r.Context(), feedbackID)
		if err != nil || item.WorkspaceID != id.WorkspaceID {
			continue
		}
		job := queue.NewJob(feedbackID, id.WorkspaceID, queue.FullPipeline(), 0)
		if err := h.backend.Send(r.Context(), job); err != nil {
			h.logger.Error("enqueuing reprocess job", "feedback_id", feedbackID, "error", err)
			continue
		}
		enqueued++
	}
	httpserver.Respond(w, http.StatusAccepted, map[string]any{"enqueued": enqueued})
}

func (h *Handler) handleProcessPending(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	items, _, err := h.feedback.ListAdminPendingAI(r.Context(), id.WorkspaceID)
	if err != nil {
		h.logger.Error("listing pending ai items", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to list pending items")
		return
	}

	enqueued := 0
	for _, item := range items {
		job := queue.NewJob(item.ID, id.WorkspaceID, queue.FullPipeline(), 0)
		if err := h.backend.Send(r.Context(), job); err != nil {
			h.logger.Error("enqueuing pending job", "feedback_id", item.ID, "error", err)
			continue
		}
		enqueued++
	}
	httpserver.Respond(w, http.StatusAccepted, map[string]any{"enqueued": enqueued})
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}

	usage, err := h.store.ListUsage(r.Context(), id.WorkspaceID, days)
	if err != nil {
		h.logger.Error("listing ai usage", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to list ai usage")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"items": usage})
}
