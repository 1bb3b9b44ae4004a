package feedback

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/internal/httpserver"
	"github.com/clearvoice/feedback/pkg/auth"
)

// AdminHandler serves the bearer-authenticated, workspace-scoped feedback,
// tag, and comment management API (spec §6.2).
type AdminHandler struct {
	logger  *slog.Logger
	service *Service
	store   *Store
}

func NewAdminHandler(logger *slog.Logger, service *Service, store *Store) *AdminHandler {
	return &AdminHandler{logger: logger, service: service, store: store}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/feedback", h.handleList)
	r.Get("/feedback/recent", h.handleRecent)
	r.Get("/feedback/{id}", h.handleGet)
	r.Patch("/feedback/{id}", h.handlePatch)
	r.Delete("/feedback/{id}", h.handleDelete)
	r.Post("/feedback/bulk", h.handleBulk)
	r.Post("/feedback/{id}/comments", h.handleAdminComment)

	r.Get("/tags", h.handleListTags)
	r.Post("/tags", h.handleCreateTag)
	r.Patch("/tags/{id}", h.handleUpdateTag)
	r.Delete("/tags/{id}", h.handleDeleteTag)
	return r
}

func (h *AdminHandler) handleList(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	filter := AdminListFilter{
		Statuses:         queryList(r, "status"),
		ModerationStates: queryList(r, "moderation_state"),
		Search:           r.URL.Query().Get("search"),
		Sort:             r.URL.Query().Get("sort"),
		Order:            r.URL.Query().Get("order"),
		Limit:            queryInt(r, "limit", 50),
		Offset:           queryInt(r, "offset", 0),
	}

	items, total, err := h.service.ListAdmin(r.Context(), id.WorkspaceID, filter)
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *AdminHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	limit := queryInt(r, "limit", 10)
	items, _, err := h.service.ListAdmin(r.Context(), id.WorkspaceID, AdminListFilter{Sort: "created_at", Order: "desc", Limit: limit})
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"items": items})
}

func (h *AdminHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	item, err := h.service.GetByID(r.Context(), id.WorkspaceID, chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, item)
}

type patchFeedbackRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=160"`
	Description     *string `json:"description" validate:"omitempty,max=4000"`
	Status          *string `json:"status"`
	ModerationState *string `json:"moderation_state"`
	IsHidden        *bool   `json:"is_hidden"`
	Tags            []int64 `json:"tags"`
}

func (h *AdminHandler) handlePatch(w http.ResponseWriter, r *http.Request) {
	var req patchFeedbackRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := auth.FromContext(r.Context())
	item, err := h.service.Patch(r.Context(), id.WorkspaceID, chi.URLParam(r, "id"), PatchTagsInput{
		PatchInput: PatchInput{
			Title:           req.Title,
			Description:     req.Description,
			Status:          req.Status,
			ModerationState: req.ModerationState,
			IsHidden:        req.IsHidden,
		},
		TagIDs: req.Tags,
	})
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, item)
}

func (h *AdminHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	itemID := chi.URLParam(r, "id")

	if _, err := h.service.GetByID(r.Context(), id.WorkspaceID, itemID); err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}

	if err := h.store.DeleteItem(r.Context(), itemID); err != nil {
		h.logger.Error("deleting feedback item", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to delete feedback item")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

type bulkRequest struct {
	IDs     []string `json:"ids" validate:"required,min=1,max=100"`
	Updates struct {
		Status          *string `json:"status"`
		ModerationState *string `json:"moderation_state"`
		IsHidden        *bool   `json:"is_hidden"`
	} `json:"updates"`
}

func (h *AdminHandler) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := auth.FromContext(r.Context())
	result, err := h.service.BulkUpdate(r.Context(), id.WorkspaceID, BulkPatchInput{
		IDs:             req.IDs,
		Status:          req.Updates.Status,
		ModerationState: req.Updates.ModerationState,
		IsHidden:        req.Updates.IsHidden,
	})
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, result)
}

func (h *AdminHandler) handleAdminComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := auth.FromContext(r.Context())
	authorID := id.UserID
	comment, err := h.service.CreateComment(r.Context(), chi.URLParam(r, "id"), &authorID, req.Content, false)
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusCreated, comment)
}

func (h *AdminHandler) handleListTags(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	tags, err := h.store.ListTagsForWorkspace(r.Context(), id.WorkspaceID)
	if err != nil {
		h.logger.Error("listing tags", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to list tags")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"items": tags})
}

type createTagRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Color string `json:"color" validate:"required"`
}

func (h *AdminHandler) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	if !ValidColor(req.Color) {
		httpserver.RespondError(w, http.StatusBadRequest, apperror.CodeValidation, "color must match #RRGGBB")
		return
	}

	id := auth.FromContext(r.Context())
	tag, err := h.store.CreateTag(r.Context(), id.WorkspaceID, req.Name, req.Color)
	if err != nil {
		httpserver.RespondError(w, http.StatusConflict, apperror.CodeConflict, "a tag with that name already exists")
		return
	}
	httpserver.Respond(w, http.StatusCreated, tag)
}

type updateTagRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Color *string `json:"color"`
}

func (h *AdminHandler) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	var req updateTagRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	if req.Color != nil && !ValidColor(*req.Color) {
		httpserver.RespondError(w, http.StatusBadRequest, apperror.CodeValidation, "color must match #RRGGBB")
		return
	}

	id := auth.FromContext(r.Context())
	tagID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, apperror.CodeValidation, "invalid tag id")
		return
	}

	tag, err := h.store.UpdateTag(r.Context(), id.WorkspaceID, tagID, req.Name, req.Color)
	if err != nil {
		httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "tag not found")
		return
	}
	httpserver.Respond(w, http.StatusOK, tag)
}

func (h *AdminHandler) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	tagID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, apperror.CodeValidation, "invalid tag id")
		return
	}

	if err := h.store.DeleteTag(r.Context(), id.WorkspaceID, tagID); err != nil {
		httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "tag not found")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
