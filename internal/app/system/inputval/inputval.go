// internal/app/system/inputval/inputval.go
package inputval

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLen  = 100
	minPhoneLen = 10
	maxPhoneLen = 15
)

// IsValidEmail reports whether s parses as a bare RFC 5322 address
// (display-name forms are rejected).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// IsValidFullName reports whether a display name is non-empty after trimming
// and fits the storage limit.
func IsValidFullName(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && utf8.RuneCountInString(s) <= maxNameLen
}

// IsValidPhone checks a canonicalized phone number: an optional leading '+'
// followed by 10 to 15 digits. Callers canonicalize with normalize.Phone
// first; formatting characters fail validation here.
func IsValidPhone(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if len(s) < minPhoneLen || len(s) > maxPhoneLen {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsValidRole reports whether s is one of the participant roles.
func IsValidRole(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "participant", "admin":
		return true
	}
	return false
}
