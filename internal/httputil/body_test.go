package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadAllWithLimit(t *testing.T) {
	data, truncated, err := ReadAllWithLimit(strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatalf("ReadAllWithLimit() error = %v", err)
	}
	if truncated || string(data) != "hello" {
		t.Errorf("got (%q, %v), want (hello, false)", data, truncated)
	}

	data, truncated, err = ReadAllWithLimit(strings.NewReader("hello world"), 5)
	if err != nil {
		t.Fatalf("ReadAllWithLimit() error = %v", err)
	}
	if !truncated || string(data) != "hello" {
		t.Errorf("got (%q, %v), want (hello, true)", data, truncated)
	}

	if _, _, err := ReadAllWithLimit(strings.NewReader("x"), 0); err == nil {
		t.Error("ReadAllWithLimit() with zero limit should fail")
	}
}

func TestReadAllStrict(t *testing.T) {
	if _, err := ReadAllStrict(strings.NewReader("too long"), 3); err == nil {
		t.Error("ReadAllStrict() should fail when body exceeds limit")
	}
	data, err := ReadAllStrict(strings.NewReader("ok"), 3)
	if err != nil || string(data) != "ok" {
		t.Errorf("ReadAllStrict() = (%q, %v), want (ok, nil)", data, err)
	}
}

func TestDecodeJSONBody(t *testing.T) {
	var target struct {
		UserID string `json:"userId"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userId":"u-1"}`))
	if err := DecodeJSONBody(req, &target); err != nil {
		t.Fatalf("DecodeJSONBody() error = %v", err)
	}
	if target.UserID != "u-1" {
		t.Errorf("UserID = %q, want u-1", target.UserID)
	}

	target.UserID = ""
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("   "))
	if err := DecodeJSONBody(req, &target); err != nil {
		t.Errorf("DecodeJSONBody() on blank body error = %v", err)
	}
	if target.UserID != "" {
		t.Errorf("UserID = %q, want empty", target.UserID)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userId":`))
	if err := DecodeJSONBody(req, &target); err == nil {
		t.Error("DecodeJSONBody() should fail on malformed JSON")
	}
}
