package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestRun(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")
	qr := filepath.Join(t.TempDir(), "qr.png")

	var out bytes.Buffer
	err := run(&out, strings.NewReader("a long enough password\n"), "me@example.com", "Portfolio", qr, true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	env := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		k, v, _ := strings.Cut(line, "=")
		env[k] = strings.Trim(v, "'")
	}
	if env["ADMIN_EMAIL"] != "me@example.com" {
		t.Errorf("ADMIN_EMAIL: got %q", env["ADMIN_EMAIL"])
	}
	if err := bcrypt.CompareHashAndPassword([]byte(env["ADMIN_PASSWORD_HASH"]), []byte("a long enough password")); err != nil {
		t.Errorf("hash does not match password: %v", err)
	}
	if env["ADMIN_TOTP_SECRET"] == "" {
		t.Error("missing ADMIN_TOTP_SECRET")
	}
	data, err := os.ReadFile(qr)
	if err != nil {
		t.Fatalf("read qr: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("qr file is not a PNG")
	}
}

func TestRunWithoutTOTP(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "from the environment")
	qr := filepath.Join(t.TempDir(), "qr.png")

	var out bytes.Buffer
	if err := run(&out, strings.NewReader(""), "me@example.com", "Portfolio", qr, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out.String(), "ADMIN_TOTP_SECRET") {
		t.Error("unexpected TOTP secret")
	}
	if _, err := os.Stat(qr); !os.IsNotExist(err) {
		t.Error("qr file should not be written")
	}
}

func TestRunRejects(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")
	tests := []struct {
		name  string
		email string
		input string
	}{
		{"no email", "", "a long enough password\n"},
		{"short password", "me@example.com", "short\n"},
		{"empty input", "me@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(&bytes.Buffer{}, strings.NewReader(tt.input), tt.email, "Portfolio", filepath.Join(t.TempDir(), "qr.png"), true)
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}
