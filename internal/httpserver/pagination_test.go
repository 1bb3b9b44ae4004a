package httpserver

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestCursor_RoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), ID: "fb_abc123"}

	encoded := EncodeCursor(c)
	decoded, err := DecodeCursor(encoded)
	if err != nil {
		t.Fatalf("DecodeCursor() error = %v", err)
	}

	if !decoded.CreatedAt.Equal(c.CreatedAt) || decoded.ID != c.ID {
		t.Errorf("DecodeCursor(EncodeCursor(%+v)) = %+v, want round trip", c, decoded)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	tests := []string{
		"not-base64!!",
		"", // decodes to empty string with no ":" separator
	}
	for _, raw := range tests {
		if _, err := DecodeCursor(raw); err == nil {
			t.Errorf("DecodeCursor(%q) = nil error, want error", raw)
		}
	}
}

func TestParseCursorParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?", nil)
		p, err := ParseCursorParams(r)
		if err != nil {
			t.Fatalf("ParseCursorParams() error = %v", err)
		}
		if p.Limit != DefaultPageSize || p.After != nil {
			t.Errorf("ParseCursorParams() = %+v, want default limit and no cursor", p)
		}
	})

	t.Run("clamps limit to max", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?limit=10000", nil)
		p, err := ParseCursorParams(r)
		if err != nil {
			t.Fatalf("ParseCursorParams() error = %v", err)
		}
		if p.Limit != MaxPageSize {
			t.Errorf("Limit = %d, want %d", p.Limit, MaxPageSize)
		}
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?limit=0", nil)
		if _, err := ParseCursorParams(r); err == nil {
			t.Error("ParseCursorParams() with limit=0 = nil error, want error")
		}
	})

	t.Run("rejects invalid cursor", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?after=not-a-cursor!!", nil)
		if _, err := ParseCursorParams(r); err == nil {
			t.Error("ParseCursorParams() with invalid cursor = nil error, want error")
		}
	})
}

func TestNewCursorPage(t *testing.T) {
	items := []int{1, 2, 3}
	cursorFn := func(i int) Cursor { return Cursor{CreatedAt: time.Now(), ID: "fb_" + string(rune('0'+i))} }

	t.Run("no more pages", func(t *testing.T) {
		page := NewCursorPage(items, 3, cursorFn)
		if page.HasMore || page.NextCursor != nil {
			t.Errorf("NewCursorPage() = %+v, want no more pages", page)
		}
	})

	t.Run("has more pages", func(t *testing.T) {
		page := NewCursorPage(items, 2, cursorFn)
		if !page.HasMore || page.NextCursor == nil {
			t.Errorf("NewCursorPage() = %+v, want HasMore=true with a NextCursor", page)
		}
		if len(page.Items) != 2 {
			t.Errorf("NewCursorPage() items = %d, want truncated to 2", len(page.Items))
		}
	})
}

func TestParseOffsetParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?", nil)
		p, err := ParseOffsetParams(r)
		if err != nil {
			t.Fatalf("ParseOffsetParams() error = %v", err)
		}
		if p.Page != 1 || p.PageSize != DefaultPageSize || p.Offset != 0 {
			t.Errorf("ParseOffsetParams() = %+v, want page 1 default size 0 offset", p)
		}
	})

	t.Run("computes offset", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?page=3&page_size=10", nil)
		p, err := ParseOffsetParams(r)
		if err != nil {
			t.Fatalf("ParseOffsetParams() error = %v", err)
		}
		if p.Offset != 20 {
			t.Errorf("Offset = %d, want 20", p.Offset)
		}
	})

	t.Run("rejects non-positive page", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?page=0", nil)
		if _, err := ParseOffsetParams(r); err == nil {
			t.Error("ParseOffsetParams() with page=0 = nil error, want error")
		}
	})
}

func TestNewOffsetPage(t *testing.T) {
	page := NewOffsetPage([]int{1, 2}, OffsetParams{Page: 2, PageSize: 10}, 25)
	if page.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", page.TotalPages)
	}
}
