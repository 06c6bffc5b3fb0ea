// internal/app/system/normalize/normalize.go

// Package normalize holds the canonical forms for user-entered fields.
// Every store write and every lookup goes through these helpers so that
// "  User@Example.COM " and "user@example.com" land on the same document.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Phone strips spaces, hyphens, dots and parentheses from a phone number,
// keeping digits and a single leading "+". It does not validate; callers
// that need a well-formed number use admission's phone check on the
// canonical form returned here.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
			// separators are dropped
		default:
			// keep unexpected runes so validation can reject them
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Role lowercases and trims a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
