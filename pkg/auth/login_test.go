package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLoginHandler() *LoginHandler {
	return NewLoginHandler(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleSignup_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing email", `{"password":"password123"}`, http.StatusUnprocessableEntity},
		{"invalid email", `{"email":"not-an-email","password":"password123"}`, http.StatusUnprocessableEntity},
		{"password too short", `{"email":"a@example.com","password":"short"}`, http.StatusUnprocessableEntity},
		{"invalid JSON", `{bad`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}

	h := testLoginHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			h.HandleSignup(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHandleLogin_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing password", `{"email":"a@example.com"}`, http.StatusUnprocessableEntity},
		{"invalid email", `{"email":"nope","password":"x"}`, http.StatusUnprocessableEntity},
		{"invalid JSON", `{bad`, http.StatusBadRequest},
	}

	h := testLoginHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			h.HandleLogin(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHandleMe(t *testing.T) {
	h := testLoginHandler()

	t.Run("unauthenticated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		w := httptest.NewRecorder()
		h.HandleMe(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("authenticated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r = r.WithContext(NewContext(context.Background(), &Identity{UserID: "usr_1", Email: "a@example.com"}))
		w := httptest.NewRecorder()
		h.HandleMe(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}
	})
}

func TestHandleLogout_NoBearerToken(t *testing.T) {
	h := testLoginHandler()

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	w := httptest.NewRecorder()
	h.HandleLogout(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
