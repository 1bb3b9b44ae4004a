package workspace

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/internal/httpserver"
	"github.com/clearvoice/feedback/pkg/auth"
)

// Handler provides the admin-side workspace/board management API. Mounted
// under the authenticated, workspace-scoped admin router.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes returns a chi.Router with all workspace/board routes mounted. It
// assumes WorkspaceScope has already resolved {workspace_slug} into the
// request's Identity.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/workspace", h.handleGetWorkspace)
	r.Get("/boards", h.handleListBoards)
	r.Post("/boards", h.handleCreateBoard)
	r.Patch("/boards/{id}", h.handleUpdateBoard)
	return r
}

func (h *Handler) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	ws, err := h.service.store.GetWorkspaceByID(r.Context(), id.WorkspaceID)
	if err != nil {
		httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "workspace not found")
		return
	}
	httpserver.Respond(w, http.StatusOK, ws)
}

func (h *Handler) handleListBoards(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	boards, err := h.service.ListBoards(r.Context(), id.WorkspaceID)
	if err != nil {
		h.logger.Error("listing boards", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to list boards")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"items": boards})
}

type createBoardRequest struct {
	Slug string `json:"slug" validate:"required,min=1,max=100"`
	Name string `json:"name" validate:"required,min=1,max=200"`
}

func (h *Handler) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req createBoardRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	if !ValidSlug(req.Slug) {
		httpserver.RespondError(w, http.StatusBadRequest, apperror.CodeValidation, "board slug must match [A-Za-z0-9_-]{1,100}")
		return
	}

	id := auth.FromContext(r.Context())
	if auth.Rank(id.Role) < auth.Rank(auth.RoleAdmin) {
		httpserver.RespondError(w, http.StatusForbidden, apperror.CodeInsufficientPermissions, "admin role required")
		return
	}

	board, err := h.service.store.CreateBoard(r.Context(), id.WorkspaceID, req.Slug, req.Name)
	if err != nil {
		h.logger.Error("creating board", "error", err)
		httpserver.RespondError(w, http.StatusConflict, apperror.CodeConflict, "board already exists")
		return
	}
	httpserver.Respond(w, http.StatusCreated, board)
}

type updateBoardRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=200"`
	IsPublic   *bool   `json:"is_public"`
	IsArchived *bool   `json:"is_archived"`
}

func (h *Handler) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	var req updateBoardRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := auth.FromContext(r.Context())
	if auth.Rank(id.Role) < auth.Rank(auth.RoleAdmin) {
		httpserver.RespondError(w, http.StatusForbidden, apperror.CodeInsufficientPermissions, "admin role required")
		return
	}

	boardID := chi.URLParam(r, "id")
	existing, err := h.service.GetBoard(r.Context(), boardID)
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	if existing.WorkspaceID != id.WorkspaceID {
		httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "board not found")
		return
	}

	board, err := h.service.UpdateBoard(r.Context(), boardID, UpdateBoardInput{
		Name:       req.Name,
		IsPublic:   req.IsPublic,
		IsArchived: req.IsArchived,
	})
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, board)
}
