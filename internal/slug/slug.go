// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	// apostrophes are dropped so "How's" becomes "hows", not "how-s".
	apostrophes = strings.NewReplacer("'", "", "’", "", "`", "")
	// separators matches every run of characters outside the slug alphabet.
	separators = regexp.MustCompile(`[^a-z0-9]+`)
	valid      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// MaxLength caps a generated slug in bytes, leaving room for a WithSuffix
// disambiguator inside the 255-wide slug column.
const MaxLength = 200

// Generate creates a URL-friendly slug from the given string.
// Example: "Café Déjà Vu, 2026!" → "cafe-deja-vu-2026"
//
// The result may be empty when s has no transliterable letters or digits;
// callers fall back to the entity ID in that case. Results longer than
// MaxLength are cut back to the last whole word that fits.
func Generate(s string) string {
	result := unidecode.Unidecode(s)
	result = apostrophes.Replace(strings.ToLower(result))
	result = separators.ReplaceAllString(result, "-")
	return truncate(strings.Trim(result, "-"))
}

func truncate(s string) string {
	if len(s) <= MaxLength {
		return s
	}
	if s[MaxLength] == '-' {
		return s[:MaxLength]
	}
	cut := s[:MaxLength]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, "-")
}

// Valid reports whether s is already in canonical slug form.
func Valid(s string) bool {
	return valid.MatchString(s)
}

// WithSuffix returns base with a numeric disambiguator, e.g. "post-2".
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
