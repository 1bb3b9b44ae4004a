package theme

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
	return NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestHandleCreate_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing name", `{}`, http.StatusUnprocessableEntity},
		{"name too long", `{"name":"` + strings.Repeat("a", 101) + `"}`, http.StatusUnprocessableEntity},
		{"description too long", `{"name":"ok","description":"` + strings.Repeat("a", 1001) + `"}`, http.StatusUnprocessableEntity},
		{"invalid JSON", `{bad`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}

	h := testHandler()
	router := chi.NewRouter()
	router.Mount("/", h.Routes())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/ai/themes", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHandleUpdate_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"name too long", `{"name":"` + strings.Repeat("a", 101) + `"}`, http.StatusUnprocessableEntity},
		{"invalid JSON", `{bad`, http.StatusBadRequest},
	}

	h := testHandler()
	router := chi.NewRouter()
	router.Mount("/", h.Routes())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPatch, "/ai/themes/th_1", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
