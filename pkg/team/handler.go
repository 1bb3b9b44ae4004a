package team

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/internal/httpserver"
	"github.com/clearvoice/feedback/pkg/auth"
	"github.com/clearvoice/feedback/pkg/workspace"
)

// Handler provides the admin team/invitation API. Mounted under the
// authenticated, workspace-scoped admin router.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes returns a chi.Router with team and invitation routes mounted,
// except POST /invitations/{token}/accept which is workspace-agnostic and
// is mounted separately at the top level by internal/app.
//
// Only authentication (applied by the caller, internal/app's
// mountAdminAPI) is required for GET /team and DELETE /team/{memberId}:
// spec §4.4's role matrix grants every non-owner role "remove self", and
// Service.RemoveMember itself enforces the admin-minimum/outrank rule for
// removing anyone else, so gating the whole route behind an admin rank
// would 403 a member removing themselves before the request ever reaches
// that check. Inviting, changing a role, listing invitations, and
// canceling an invitation are admin-only actions with no self-service
// exception, so those are gated here behind RequireMinRole(RoleAdmin).
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/team", h.handleListTeam)
	r.Delete("/team/{memberId}", h.handleRemoveMember)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireMinRole(auth.RoleAdmin))
		r.Patch("/team/{memberId}", h.handleUpdateMember)
		r.Get("/team/invites", h.handleListInvites)
		r.Post("/team/invites", h.handleCreateInvite)
		r.Delete("/team/invites/{inviteId}", h.handleRevokeInvite)
	})

	return r
}

func (h *Handler) handleListTeam(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	members, err := h.service.ListMembers(r.Context(), id.WorkspaceID)
	if err != nil {
		h.logger.Error("listing team", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to list team")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"items": members})
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin member viewer"`
}

func (h *Handler) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := auth.FromContext(r.Context())
	result, err := h.service.Invite(r.Context(), id.Role, id.WorkspaceID, req.Email, req.Role)
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}

	if result.DirectAdd {
		httpserver.Respond(w, http.StatusCreated, map[string]string{
			"message":       result.Message,
			"membership_id": result.MembershipID,
		})
		return
	}

	httpserver.Respond(w, http.StatusCreated, map[string]string{
		"invitation_id": result.Invitation.ID,
		"token":         result.PlainToken,
	})
}

func (h *Handler) handleListInvites(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	invites, err := h.service.ListInvitations(r.Context(), id.WorkspaceID)
	if err != nil {
		h.logger.Error("listing invitations", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to list invitations")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"items": invites})
}

func (h *Handler) handleRevokeInvite(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	inviteID := chi.URLParam(r, "inviteId")
	if err := h.service.CancelInvitation(r.Context(), id.Role, id.WorkspaceID, inviteID); err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

type updateMemberRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member viewer"`
}

func (h *Handler) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req updateMemberRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := auth.FromContext(r.Context())
	memberID := chi.URLParam(r, "memberId")
	if err := h.service.ChangeRole(r.Context(), id.Role, id.UserID, id.WorkspaceID, memberID, req.Role); err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	memberID := chi.URLParam(r, "memberId")
	if err := h.service.RemoveMember(r.Context(), id.Role, id.UserID, id.WorkspaceID, memberID); err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AcceptHandler is mounted at the top-level /api/v1/invitations route,
// authenticated but not workspace-scoped (the workspace comes from the
// invitation itself, not the URL).
type AcceptHandler struct {
	logger    *slog.Logger
	service   *Service
	workspace *workspace.Store
}

func NewAcceptHandler(logger *slog.Logger, service *Service, workspaceStore *workspace.Store) *AcceptHandler {
	return &AcceptHandler{logger: logger, service: service, workspace: workspaceStore}
}

func (h *AcceptHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{token}/accept", h.handleAccept)
	return r
}

func (h *AcceptHandler) handleAccept(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "authentication required")
		return
	}

	token := chi.URLParam(r, "token")
	membership, inv, err := h.service.AcceptInvitation(r.Context(), id.UserID, id.Email, token)
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}

	ws, err := h.workspace.GetWorkspaceByID(r.Context(), inv.WorkspaceID)
	if err != nil {
		h.logger.Error("reading accepted invitation's workspace", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to load workspace")
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]any{
		"role":      membership.Role,
		"workspace": map[string]string{"slug": ws.Slug},
	})
}
