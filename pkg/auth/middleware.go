package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/internal/crypto"
	"github.com/clearvoice/feedback/internal/httpserver"
)

// Middleware resolves the bearer token into an Identity and stores it in the
// request context. It never rejects by itself — RequireAuth and
// RequireMinRole do the rejecting — so routes that tolerate anonymous
// callers (e.g. the public widget endpoints) can still run after it.
func Middleware(issuer *crypto.TokenIssuer, store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, outcome := issuer.Verify(raw)
			if outcome != crypto.OutcomeValid {
				next.ServeHTTP(w, r)
				return
			}

			// The session row backs revocation: logout deletes it, which
			// invalidates an otherwise-still-valid JWT before its natural expiry.
			tokenHash := crypto.HashToken(raw)
			sessionUserID, expiresAt, err := store.GetSessionByTokenHash(r.Context(), tokenHash)
			if err != nil || sessionUserID != claims.Subject || time.Now().After(expiresAt) {
				next.ServeHTTP(w, r)
				return
			}

			user, err := store.GetUserByID(r.Context(), claims.Subject)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			id := &Identity{UserID: user.ID, Email: user.Email}
			if user.Name != nil {
				id.Name = *user.Name
			}

			r = r.WithContext(NewContext(r.Context(), id))
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

// RequireAuth rejects requests with no resolved identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			httpserver.RespondError(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WorkspaceScope is middleware that resolves the {workspace_slug} URL
// parameter to a workspace ID and loads the caller's membership role into
// the Identity, failing with 404 rather than 403 when the caller has no
// membership — the resolution order in spec §4.2 requires never revealing
// whether a workspace the caller cannot access exists.
func WorkspaceScope(store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil {
				httpserver.RespondError(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "authentication required")
				return
			}

			slug := chi.URLParam(r, "workspace_slug")
			workspaceID, err := store.WorkspaceIDBySlug(r.Context(), slug)
			if err != nil {
				httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "workspace not found")
				return
			}

			role, err := store.MembershipRole(r.Context(), id.UserID, workspaceID)
			if err != nil {
				httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "workspace not found")
				return
			}

			id.WorkspaceID = workspaceID
			id.Role = role
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMinRole rejects requests whose resolved Identity ranks below
// minRole, using owner=3/admin=2/member=1/viewer=0. Must run after
// WorkspaceScope. Fails closed: an unrecognized role ranks -1.
func RequireMinRole(minRole Role) func(http.Handler) http.Handler {
	minRank := Rank(minRole)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := FromContext(r.Context())
			if id == nil || Rank(id.Role) < minRank {
				httpserver.RespondError(w, http.StatusForbidden, apperror.CodeForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionTTL is a 30-day duration. Nothing in the package reads it: login
// and OAuth create session rows with a 15-minute expiry, and no sweep
// deletes expired rows.
const SessionTTL = 30 * 24 * time.Hour
