package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/internal/crypto"
	"github.com/clearvoice/feedback/internal/httpserver"
)

// SignupRequest is the JSON body for POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"max=200"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned by signup and login.
type SessionResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// UserInfo is the public user shape returned in auth responses.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// LoginHandler handles signup, email/password login, session introspection,
// and logout.
type LoginHandler struct {
	store  *Store
	issuer *crypto.TokenIssuer
	logger *slog.Logger
}

func NewLoginHandler(store *Store, issuer *crypto.TokenIssuer, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{store: store, issuer: issuer, logger: logger}
}

func (h *LoginHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := h.store.GetUserByEmail(r.Context(), email); err == nil {
		httpserver.RespondError(w, http.StatusConflict, apperror.CodeConflict, "an account with that email already exists")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, apperror.CodeValidation, err.Error())
		return
	}

	var name *string
	if req.Name != "" {
		name = &req.Name
	}

	user, err := h.store.CreateUser(r.Context(), email, &hash, name)
	if err != nil {
		h.logger.Error("signup: creating user", "error", err)
		httpserver.RespondAppError(w, h.logger, apperror.Internal(apperror.CodeInternal, "failed to create account").Wrap(err))
		return
	}

	h.issueSession(w, r, user)
}

func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		httpserver.RespondError(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "invalid email or password")
		return
	}

	if user.PasswordHash == nil || !crypto.VerifyPassword(*user.PasswordHash, req.Password) {
		httpserver.RespondError(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "invalid email or password")
		return
	}

	h.issueSession(w, r, user)
}

func (h *LoginHandler) issueSession(w http.ResponseWriter, r *http.Request, user User) {
	token, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.Error("issuing access token", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to issue token")
		return
	}

	if _, err := h.store.CreateSession(r.Context(), user.ID, crypto.HashToken(token), time.Now().Add(15*time.Minute)); err != nil {
		h.logger.Error("creating session", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to create session")
		return
	}

	resp := SessionResponse{Token: token, User: UserInfo{ID: user.ID, Email: user.Email}}
	if user.Name != nil {
		resp.User.Name = *user.Name
	}
	httpserver.Respond(w, http.StatusOK, resp)
}

func (h *LoginHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id := FromContext(r.Context())
	if id == nil {
		httpserver.RespondError(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "authentication required")
		return
	}
	httpserver.Respond(w, http.StatusOK, UserInfo{ID: id.UserID, Email: id.Email, Name: id.Name})
}

func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if raw := bearerToken(r); raw != "" {
		_ = h.store.DeleteSessionByTokenHash(r.Context(), crypto.HashToken(raw))
	}
	httpserver.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}
