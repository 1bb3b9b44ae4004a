package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler wires every auth route: email/password signup and login, session
// introspection and logout, and the OAuth authorize/callback pair for each
// configured provider.
type Handler struct {
	login *LoginHandler
	oauth *OAuthHandler
}

func NewHandler(login *LoginHandler, oauth *OAuthHandler) *Handler {
	return &Handler{login: login, oauth: oauth}
}

// Routes returns a chi.Router with all auth routes mounted. It is intended
// to be mounted at "/auth", unauthenticated — HandleMe and HandleLogout rely
// on the identity middleware already having run against any bearer token
// present, not on a RequireAuth gate at the router level.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.login.HandleSignup)
	r.Post("/login", h.login.HandleLogin)
	r.Post("/logout", h.login.HandleLogout)
	r.Get("/me", h.login.HandleMe)

	r.Get("/{provider}/authorize", h.handleAuthorize)
	r.Get("/{provider}/callback", h.handleCallback)

	return r
}

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	h.oauth.HandleAuthorize(Provider(chi.URLParam(r, "provider")))(w, r)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	h.oauth.HandleCallback(Provider(chi.URLParam(r, "provider")))(w, r)
}
