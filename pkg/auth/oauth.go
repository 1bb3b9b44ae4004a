package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
	oauthgoogle "golang.org/x/oauth2/google"

	"github.com/clearvoice/feedback/internal/apperror"
	"github.com/clearvoice/feedback/internal/crypto"
	"github.com/clearvoice/feedback/internal/httpserver"
)

// Provider identifies an OAuth identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

const oauthStateTTL = 10 * time.Minute

// externalProfile is the provider-normalized identity returned by a code
// exchange: email is mandatory — failure to obtain one is fatal to the flow.
type externalProfile struct {
	Email string
	Name  string
}

// OAuthHandler drives the authorize-redirect / code-exchange flow for
// Google and GitHub, issuing a session the same way email/password login does.
type OAuthHandler struct {
	configs map[Provider]*oauth2.Config
	store   *Store
	issuer  *crypto.TokenIssuer
	redis   *redis.Client
	logger  *slog.Logger
}

func NewOAuthHandler(googleID, googleSecret, googleRedirect, githubID, githubSecret, githubRedirect string, store *Store, issuer *crypto.TokenIssuer, rdb *redis.Client, logger *slog.Logger) *OAuthHandler {
	configs := make(map[Provider]*oauth2.Config)
	if googleID != "" {
		configs[ProviderGoogle] = &oauth2.Config{
			ClientID:     googleID,
			ClientSecret: googleSecret,
			RedirectURL:  googleRedirect,
			Endpoint:     oauthgoogle.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		}
	}
	if githubID != "" {
		configs[ProviderGitHub] = &oauth2.Config{
			ClientID:     githubID,
			ClientSecret: githubSecret,
			RedirectURL:  githubRedirect,
			Endpoint:     oauthgithub.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		}
	}
	return &OAuthHandler{configs: configs, store: store, issuer: issuer, redis: rdb, logger: logger}
}

// HandleAuthorize redirects the caller to the provider's authorize endpoint
// with a random CSRF state stashed in Redis.
func (h *OAuthHandler) HandleAuthorize(provider Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, ok := h.configs[provider]
		if !ok {
			httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "oauth provider not configured")
			return
		}

		state, err := randomState()
		if err != nil {
			httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to generate state")
			return
		}

		if err := h.redis.Set(r.Context(), oauthStateKey(state), string(provider), oauthStateTTL).Err(); err != nil {
			h.logger.Error("oauth: storing state", "error", err)
			httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to store state")
			return
		}

		http.Redirect(w, r, cfg.AuthCodeURL(state), http.StatusFound)
	}
}

// HandleCallback exchanges the authorization code, fetches the provider
// profile, and issues a session for the matched or newly created user.
func (h *OAuthHandler) HandleCallback(provider Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, ok := h.configs[provider]
		if !ok {
			httpserver.RespondError(w, http.StatusNotFound, apperror.CodeNotFound, "oauth provider not configured")
			return
		}

		ctx := r.Context()

		state := r.URL.Query().Get("state")
		if state == "" {
			httpserver.RespondError(w, http.StatusBadRequest, apperror.CodeValidation, "missing state parameter")
			return
		}
		storedProvider, err := h.redis.GetDel(ctx, oauthStateKey(state)).Result()
		if err != nil || storedProvider != string(provider) {
			httpserver.RespondError(w, http.StatusBadRequest, apperror.CodeValidation, "invalid or expired state")
			return
		}

		if errParam := r.URL.Query().Get("error"); errParam != "" {
			httpserver.RespondError(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "authentication failed: "+errParam)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			httpserver.RespondError(w, http.StatusBadRequest, apperror.CodeValidation, "missing code parameter")
			return
		}

		token, err := cfg.Exchange(ctx, code)
		if err != nil {
			h.logger.Error("oauth: code exchange failed", "provider", provider, "error", err)
			httpserver.RespondError(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "code exchange failed")
			return
		}

		var profile externalProfile
		switch provider {
		case ProviderGoogle:
			profile, err = h.fetchGoogleProfile(ctx, cfg, token)
		case ProviderGitHub:
			profile, err = h.fetchGitHubProfile(ctx, cfg, token)
		}
		if err != nil {
			h.logger.Error("oauth: fetching profile failed", "provider", provider, "error", err)
			httpserver.RespondError(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "failed to obtain a verified email from the provider")
			return
		}
		if profile.Email == "" {
			httpserver.RespondError(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "provider did not return an email address")
			return
		}

		user, err := h.store.GetUserByEmail(ctx, profile.Email)
		if err == ErrNoRows {
			var name *string
			if profile.Name != "" {
				name = &profile.Name
			}
			user, err = h.store.CreateUser(ctx, profile.Email, nil, name)
		}
		if err != nil {
			h.logger.Error("oauth: resolving user", "error", err)
			httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to resolve account")
			return
		}

		if user.EmailVerifiedAt == nil {
			_ = h.store.MarkEmailVerified(ctx, user.ID)
		}

		accessToken, err := h.issuer.Issue(user.ID, user.Email)
		if err != nil {
			httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to issue token")
			return
		}
		if _, err := h.store.CreateSession(ctx, user.ID, crypto.HashToken(accessToken), time.Now().Add(15*time.Minute)); err != nil {
			httpserver.RespondError(w, http.StatusInternalServerError, apperror.CodeInternal, "failed to create session")
			return
		}

		httpserver.Respond(w, http.StatusOK, SessionResponse{
			Token: accessToken,
			User:  UserInfo{ID: user.ID, Email: user.Email},
		})
	}
}

func (h *OAuthHandler) fetchGoogleProfile(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (externalProfile, error) {
	client := cfg.Client(ctx, token)
	resp, err := client.Get("https://openidconnect.googleapis.com/v1/userinfo")
	if err != nil {
		return externalProfile{}, fmt.Errorf("fetching google userinfo: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return externalProfile{}, err
	}
	if !body.EmailVerified {
		return externalProfile{}, fmt.Errorf("google account email is not verified")
	}
	return externalProfile{Email: body.Email, Name: body.Name}, nil
}

// fetchGitHubProfile fetches the GitHub profile, falling back to a
// secondary call to the emails endpoint when the profile's email is absent,
// preferring the primary+verified address, then any verified one.
func (h *OAuthHandler) fetchGitHubProfile(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (externalProfile, error) {
	client := github.NewClient(cfg.Client(ctx, token))

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return externalProfile{}, fmt.Errorf("fetching github user: %w", err)
	}

	profile := externalProfile{Name: user.GetName()}
	if email := user.GetEmail(); email != "" {
		profile.Email = email
		return profile, nil
	}

	emails, _, err := client.Users.ListEmails(ctx, nil)
	if err != nil {
		return externalProfile{}, fmt.Errorf("fetching github emails: %w", err)
	}

	sort.Slice(emails, func(i, j int) bool {
		primary := func(e *github.UserEmail) int {
			switch {
			case e.GetPrimary() && e.GetVerified():
				return 0
			case e.GetVerified():
				return 1
			default:
				return 2
			}
		}
		return primary(emails[i]) < primary(emails[j])
	})

	for _, e := range emails {
		if e.GetVerified() {
			profile.Email = e.GetEmail()
			return profile, nil
		}
	}

	return externalProfile{}, fmt.Errorf("no verified email on github account")
}

func decodeJSON(resp *http.Response, v any) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding provider response: %w", err)
	}
	return nil
}

func oauthStateKey(state string) string {
	return "clearvoice:oauth_state:" + state
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
