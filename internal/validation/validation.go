// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package validation provides input predicates used by the login form and the CLI.
//
// Every predicate is total: empty or malformed input yields false rather than
// an error.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/samber/oops"
)

// MinPasswordLength is the minimum accepted password length in characters.
const MinPasswordLength = 8

// specialChars is the punctuation set accepted by StrongPassword.
const specialChars = `!@#$%^&*(),.?":{}|<>`

var (
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	upperRegex    = regexp.MustCompile(`[A-Z]`)
	lowerRegex    = regexp.MustCompile(`[a-z]`)
	digitRegex    = regexp.MustCompile(`[0-9]`)
)

var sanitizer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// Email reports whether s has the shape local@domain.tld after trimming.
func Email(s string) bool {
	if s == "" {
		return false
	}
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// Password reports whether s is at least MinPasswordLength characters long.
// Length is counted in UTF-16 code units, so a character outside the Basic
// Multilingual Plane counts twice.
func Password(s string) bool {
	if s == "" {
		return false
	}
	return utf16Len(s) >= MinPasswordLength
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// StrongPassword reports whether s passes Password and contains an uppercase
// letter, a lowercase letter, a digit and one special character.
func StrongPassword(s string) bool {
	if !Password(s) {
		return false
	}
	return upperRegex.MatchString(s) &&
		lowerRegex.MatchString(s) &&
		digitRegex.MatchString(s) &&
		strings.ContainsAny(s, specialChars)
}

// Required reports whether s has any non-whitespace content.
func Required(s string) bool {
	return strings.TrimSpace(s) != ""
}

// PhoneNumber reports whether s contains exactly ten digits once every
// non-digit character is removed.
func PhoneNumber(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits == 10
}

// Username reports whether s is 3-20 letters, digits or underscores.
func Username(s string) bool {
	if s == "" {
		return false
	}
	return usernameRegex.MatchString(s)
}

// Sanitize escapes the HTML-significant characters < > " ' and /.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return sanitizer.Replace(s)
}

// Kinds lists the predicate names accepted by Check, in display order.
var Kinds = []string{"email", "password", "strong-password", "required", "phone", "username"}

// Check runs the predicate registered under kind.
func Check(kind, value string) (bool, error) {
	switch kind {
	case "email":
		return Email(value), nil
	case "password":
		return Password(value), nil
	case "strong-password":
		return StrongPassword(value), nil
	case "required":
		return Required(value), nil
	case "phone":
		return PhoneNumber(value), nil
	case "username":
		return Username(value), nil
	default:
		return false, oops.Code("VALIDATION_UNKNOWN_KIND").
			With("kind", kind).
			Errorf("unknown validator %q (expected one of %s)", kind, strings.Join(Kinds, ", "))
	}
}
