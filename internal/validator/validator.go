// Package validator provides input validation and sanitization functions
// for the support API and the outbound mail path.
package validator

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInputTooLong     = errors.New("input exceeds maximum length")
	ErrInvalidCharacter = errors.New("input contains invalid characters")
	ErrEmptyInput       = errors.New("input cannot be empty")
	ErrTooManyItems     = errors.New("too many items")
)

// Limits for user supplied text
const (
	MaxReplyLength    = 20000
	MaxHeaderLength   = 998
	MaxKeywords       = 50
	MaxKeywordLength  = 64
	MaxQuestionLength = 1000
)

// ValidateEmail validates email address format according to RFC 5322.
// Display names are accepted, the address part is what gets checked.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)

	if email == "" {
		return ErrEmptyInput
	}

	// RFC 5321 specifies max email length of 254 characters
	if utf8.RuneCountInString(email) > 254 {
		return ErrInputTooLong
	}

	if strings.ContainsAny(email, "\r\n") {
		return ErrInvalidCharacter
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateHeaderValue rejects values that would break out of a single
// mail header line.
func ValidateHeaderValue(value string) error {
	if strings.ContainsAny(value, "\r\n\x00") {
		return ErrInvalidCharacter
	}
	if len(value) > MaxHeaderLength {
		return ErrInputTooLong
	}
	return nil
}

// ValidateReplyText checks a draft or override reply body
func ValidateReplyText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(text) > MaxReplyLength {
		return ErrInputTooLong
	}
	if strings.ContainsRune(text, '\x00') {
		return ErrInvalidCharacter
	}
	return nil
}

// NormalizeKeywords lowercases, trims and de-duplicates knowledge keywords
func NormalizeKeywords(keywords []string) ([]string, error) {
	if len(keywords) > MaxKeywords {
		return nil, ErrTooManyItems
	}
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(SanitizeString(kw, 0))
		if kw == "" {
			continue
		}
		if utf8.RuneCountInString(kw) > MaxKeywordLength {
			return nil, ErrInputTooLong
		}
		if strings.ContainsAny(kw, " \t%_") {
			return nil, ErrInvalidCharacter
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out, nil
}

// Pagination defaults
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ValidatePagination validates and sanitizes pagination parameters.
// Returns sanitized limit and offset values.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// SanitizeString removes potentially dangerous characters and enforces length limits.
// Removes control characters and trims whitespace.
func SanitizeString(input string, maxLength int) string {
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	input = strings.TrimSpace(input)

	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}
