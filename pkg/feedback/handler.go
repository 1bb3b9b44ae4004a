package feedback

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clearvoice/feedback/internal/httpserver"
)

// PublicHandler serves the unauthenticated widget API (spec §6.1): the
// per-board feed, submission, voting, and commenting.
type PublicHandler struct {
	logger  *slog.Logger
	service *Service
}

func NewPublicHandler(logger *slog.Logger, service *Service) *PublicHandler {
	return &PublicHandler{logger: logger, service: service}
}

// Routes mounts under /api/v1/{workspace}/{board}.
func (h *PublicHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/feedback", h.handleList)
	r.Post("/feedback", h.handleCreate)
	r.Post("/feedback/{id}/votes", h.handleVote)
	r.Post("/feedback/{id}/comments", h.handleComment)
	return r
}

func (h *PublicHandler) handleList(w http.ResponseWriter, r *http.Request) {
	workspaceSlug := chi.URLParam(r, "workspace")
	boardSlug := chi.URLParam(r, "board")
	status := r.URL.Query().Get("status")

	items, err := h.service.ListPublic(r.Context(), workspaceSlug, boardSlug, status, publicListLimit, 0)
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"items": items})
}

type createFeedbackRequest struct {
	Title          string `json:"title" validate:"required,min=1,max=160"`
	Description    string `json:"description" validate:"max=4000"`
	ExternalUserID string `json:"externalUserId" validate:"max=100"`
}

func (h *PublicHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createFeedbackRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.service.Create(r.Context(), chi.URLParam(r, "workspace"), chi.URLParam(r, "board"), CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		ExternalUserID: req.ExternalUserID,
	})
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusCreated, item)
}

type voteRequest struct {
	ExternalUserID string `json:"externalUserId" validate:"required,max=100"`
}

func (h *PublicHandler) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	total, err := h.service.Vote(r.Context(), chi.URLParam(r, "workspace"), chi.URLParam(r, "board"), id, req.ExternalUserID)
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{"feedback_id": id, "vote_count": total})
}

type commentRequest struct {
	Content        string `json:"content" validate:"required,min=1,max=4000"`
	ExternalUserID string `json:"externalUserId" validate:"max=100"`
}

func (h *PublicHandler) handleComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.service.CreateComment(r.Context(), chi.URLParam(r, "id"), nil, req.Content, false)
	if err != nil {
		httpserver.RespondAppError(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusCreated, comment)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryList(r *http.Request, key string) []string {
	v := r.URL.Query()[key]
	return v
}
