package httpserver

import (
	"net/http/httptest"
	"strings"
	"testing"
)

type sampleRequest struct {
	Title string `json:"title" validate:"required,min=1,max=10"`
	Count int    `json:"count" validate:"gte=0,lte=100"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"title":"hi","count":5}`, false},
		{"empty body", ``, true},
		{"malformed json", `{bad`, true},
		{"unknown field rejected", `{"title":"hi","bogus":1}`, true},
		{"trailing data rejected", `{"title":"hi"}{"title":"again"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var dst sampleRequest
			err := Decode(r, &dst)
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode(%q) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid struct has no errors", func(t *testing.T) {
		v := sampleRequest{Title: "hi", Count: 5}
		if errs := Validate(&v); len(errs) != 0 {
			t.Errorf("Validate() = %+v, want no errors", errs)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		v := sampleRequest{Count: 5}
		errs := Validate(&v)
		if len(errs) != 1 || errs[0].Field != "title" {
			t.Errorf("Validate() = %+v, want one error on field title", errs)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		v := sampleRequest{Title: "hi", Count: 500}
		errs := Validate(&v)
		if len(errs) != 1 || errs[0].Field != "count" {
			t.Errorf("Validate() = %+v, want one error on field count", errs)
		}
	})
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Title", "title"},
		{"ExternalUserID", "external_user_i_d"},
		{"sampleRequest.Title", "sample_request.title"},
	}
	for _, tt := range tests {
		if got := toSnakeCase(tt.in); got != tt.want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
