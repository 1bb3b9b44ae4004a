package theme

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/internal/httpserver"
	"github.com/clearvoice/feedback/pkg/auth"
)

// Handler serves the workspace-scoped theme CRUD API (spec §6.2).
type Handler struct {
	logger *slog.Logger
	store  *Store
}

func NewHandler(logger *slog.Logger, store *Store) *Handler {
	return &Handler{logger: logger, store: store}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ai/themes", h.handleList)
	r.Post("/ai/themes", h.handleCreate)
	r.Patch("/ai/themes/{id}", h.handleUpdate)
	r.Delete("/ai/themes/{id}", h.handleDelete)
	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	themes, err := h.store.List(r.Context(), id.WorkspaceID)
	if err != nil {
		h.logger.Error("listing themes", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to list themes")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"items": themes})
}

type createRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := auth.FromContext(r.Context())
	t, err := h.store.Create(r.Context(), id.WorkspaceID, req.Name, req.Description)
	if err != nil {
		h.logger.Error("creating theme", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to create theme")
		return
	}
	httpserver.Respond(w, http.StatusCreated, t)
}

type updateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := auth.FromContext(r.Context())
	t, err := h.store.Update(r.Context(), id.WorkspaceID, chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "theme not found")
		return
	}
	httpserver.Respond(w, http.StatusOK, t)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if err := h.store.Delete(r.Context(), id.WorkspaceID, chi.URLParam(r, "id")); err != nil {
		httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "theme not found")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
