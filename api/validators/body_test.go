package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
)

type samplePayload struct {
	FileName string `json:"file_name" validate:"required"`
	Limit    int    `json:"limit" validate:"min=1,max=100"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"file_name":"payroll.xml","limit":5,"extra":true}`))
	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldMessages(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"limit":500}`))
	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %#v", typed.Details())
	}
	if details["file_name"] != "is required" {
		t.Fatalf("unexpected file_name message %q", details["file_name"])
	}
	if details["limit"] != "must be at most 100" {
		t.Fatalf("unexpected limit message %q", details["limit"])
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25", nil)
	got, err := ParseQueryInt(req, "limit", 500, 1, 1000)
	if err != nil || got != 25 {
		t.Fatalf("expected 25, got %d err %v", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	got, err = ParseQueryInt(req, "limit", 500, 1, 1000)
	if err != nil || got != 500 {
		t.Fatalf("expected default 500, got %d err %v", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/?limit=0", nil)
	if _, err = ParseQueryInt(req, "limit", 500, 1, 1000); err == nil {
		t.Fatal("expected out-of-range error")
	}

	req = httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
	if _, err = ParseQueryInt(req, "limit", 500, 1, 1000); err == nil {
		t.Fatal("expected non-numeric error")
	}
}
