// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// Identity is the single admin credential the site accepts. It comes from
// configuration; there is no user table.
type Identity struct {
	Email        string
	PasswordHash string // bcrypt
	TOTPSecret   string // optional, base32
}

// CheckPassword reports whether email and password match the identity.
// The email comparison is case-insensitive and constant-time.
func (id Identity) CheckPassword(email, password string) bool {
	if id.Email == "" || id.PasswordHash == "" {
		return false
	}
	want := []byte(strings.ToLower(strings.TrimSpace(id.Email)))
	got := []byte(strings.ToLower(strings.TrimSpace(email)))
	emailOK := subtle.ConstantTimeCompare(want, got) == 1

	// Always run bcrypt so a wrong email costs the same as a wrong password.
	passOK := bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(password)) == nil
	return emailOK && passOK
}

// TOTPEnabled reports whether sign-in requires a second factor.
func (id Identity) TOTPEnabled() bool {
	return id.TOTPSecret != ""
}

// CheckCode validates a 6-digit authenticator code.
func (id Identity) CheckCode(code string) bool {
	if !id.TOTPEnabled() {
		return false
	}
	return totp.Validate(strings.TrimSpace(code), id.TOTPSecret)
}

// HashPassword returns the bcrypt hash to put in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
