package workspace

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func testHandler() *Handler {
	return NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(nil))
}

func TestHandleCreateBoard_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing slug", `{"name":"Feature Requests"}`, http.StatusUnprocessableEntity},
		{"missing name", `{"slug":"features"}`, http.StatusUnprocessableEntity},
		{"invalid slug grammar", `{"slug":"has space","name":"x"}`, http.StatusBadRequest},
		{"invalid JSON", `{bad`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}

	h := testHandler()
	router := chi.NewRouter()
	router.Mount("/", h.Routes())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/boards", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHandleUpdateBoard_Validation(t *testing.T) {
	h := testHandler()
	router := chi.NewRouter()
	router.Mount("/", h.Routes())

	r := httptest.NewRequest(http.MethodPatch, "/boards/brd_1", strings.NewReader(`{bad`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d; body = %s", w.Code, http.StatusBadRequest, w.Body.String())
	}
}
