package feedback

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func testPublicHandler() *PublicHandler {
	return NewPublicHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestHandleCreate_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing title", `{}`, http.StatusUnprocessableEntity},
		{"title too long", `{"title":"` + strings.Repeat("a", 161) + `"}`, http.StatusUnprocessableEntity},
		{"description too long", `{"title":"ok","description":"` + strings.Repeat("a", 4001) + `"}`, http.StatusUnprocessableEntity},
		{"invalid JSON", `{bad`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}

	h := testPublicHandler()
	router := chi.NewRouter()
	router.Mount("/", h.Routes())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHandleVote_Validation(t *testing.T) {
	h := testPublicHandler()
	router := chi.NewRouter()
	router.Mount("/", h.Routes())

	r := httptest.NewRequest(http.MethodPost, "/feedback/fb_1/votes", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d; body = %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}
}

func TestHandleComment_Validation(t *testing.T) {
	h := testPublicHandler()
	router := chi.NewRouter()
	router.Mount("/", h.Routes())

	r := httptest.NewRequest(http.MethodPost, "/feedback/fb_1/comments", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d; body = %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  string
		def  int
		want int
	}{
		{"absent returns default", "/?x=1", "limit", 20, 20},
		{"present", "/?limit=5", "limit", 20, 5},
		{"non-numeric returns default", "/?limit=abc", "limit", 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if got := queryInt(r, tt.key, tt.def); got != tt.want {
				t.Errorf("queryInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQueryList(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?tag=a&tag=b", nil)
	got := queryList(r, "tag")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("queryList() = %v, want [a b]", got)
	}
}
