package handlers

import (
	"strings"
	"testing"

	"portfolio/internal/apperr"
)

func TestValidateContactForm(t *testing.T) {
	valid := contactForm{
		Name:    "Ann",
		Email:   "ann@example.com",
		Subject: "Hello",
		Message: "Let's build something.",
	}

	tests := []struct {
		name    string
		mutate  func(f *contactForm)
		wantMsg string
	}{
		{"valid", func(*contactForm) {}, ""},
		{"missing name", func(f *contactForm) { f.Name = "" }, "Name is required."},
		{"bad email", func(f *contactForm) { f.Email = "ann" }, "Email must be a valid email address."},
		{"short message", func(f *contactForm) { f.Message = "hi" }, "Message is too short."},
		{"long subject", func(f *contactForm) { f.Subject = strings.Repeat("s", 201) }, "Subject is too long."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)
			err := validateForm("test", form)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperr.Is(err, apperr.ValidationFailed) {
				t.Fatalf("kind: got %v, want ValidationFailed", apperr.KindOf(err))
			}
			if got := apperr.Message(err); got != tt.wantMsg {
				t.Errorf("message: got %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestValidateCodeForm(t *testing.T) {
	tests := []struct {
		code      string
		wantError bool
	}{
		{"123456", false},
		{"12345", true},
		{"1234567", true},
		{"12a456", true},
		{"", true},
	}
	for _, tt := range tests {
		err := validateForm("test", codeForm{Code: tt.code})
		if (err != nil) != tt.wantError {
			t.Errorf("code %q: got error %v, want error %v", tt.code, err, tt.wantError)
		}
	}
}

func TestTrimmed(t *testing.T) {
	values := map[string][]string{
		"title": {"  Hello  ", "ignored"},
		"empty": {},
	}
	if got := trimmed(values, "title"); got != "Hello" {
		t.Errorf("title: got %q", got)
	}
	if got := trimmed(values, "empty"); got != "" {
		t.Errorf("empty: got %q", got)
	}
	if got := trimmed(values, "missing"); got != "" {
		t.Errorf("missing: got %q", got)
	}
}
