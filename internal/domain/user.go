// Package domain contains entities and the validation/normalization rules
// shared by the registry, the formatter and the transport adapters.
package domain

import (
	"errors"
	"strings"
)

const (
	MaxUsernameLen = 50
	MaxTextLen     = 1000
)

var (
	ErrUsernameEmpty = errors.New("username empty")
	ErrTextEmpty     = errors.New("text empty")
)

// SanitizeName trims surrounding whitespace and clamps the result to
// MaxUsernameLen runes. Names that are empty after trimming are rejected.
func SanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrUsernameEmpty
	}
	return clampRunes(name, MaxUsernameLen), nil
}

// clampRunes truncates s to at most n runes. Truncation happens on rune
// boundaries so a multi-byte code point is never split.
func clampRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
