package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
)

type samplePayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co","password":"longenough"}`))
	var dest samplePayload
	if err := DecodeJSONBody(r, &dest); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dest.Email != "a@b.co" {
		t.Fatalf("unexpected email %q", dest.Email)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co","password":"longenough","extra":true}`))
	var dest samplePayload
	err := DecodeJSONBody(r, &dest)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyValidationDetailsUseJSONNames(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"not-an-email","password":"short"}`))
	var dest samplePayload
	err := DecodeJSONBody(r, &dest)
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected detail map, got %T", typed.Details())
	}
	if details["email"] != "must be a valid email" {
		t.Errorf("email detail = %q", details["email"])
	}
	if details["password"] != "must be at least 8" {
		t.Errorf("password detail = %q", details["password"])
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=3", nil)
	got, err := ParseQueryInt(r, "page", 1, 1, 100)
	if err != nil || got != 3 {
		t.Fatalf("got %d err %v", got, err)
	}

	r = httptest.NewRequest("GET", "/", nil)
	got, err = ParseQueryInt(r, "page", 1, 1, 100)
	if err != nil || got != 1 {
		t.Fatalf("default got %d err %v", got, err)
	}

	r = httptest.NewRequest("GET", "/?page=abc", nil)
	if _, err = ParseQueryInt(r, "page", 1, 1, 100); err == nil {
		t.Fatal("expected error for non-numeric value")
	}

	r = httptest.NewRequest("GET", "/?page=500", nil)
	if _, err = ParseQueryInt(r, "page", 1, 1, 100); err == nil {
		t.Fatal("expected error for out-of-range value")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello  ", 0); got != "hello" {
		t.Errorf("got %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc" {
		t.Errorf("got %q", got)
	}
}
