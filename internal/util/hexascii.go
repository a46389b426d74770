package util

import (
	"errors"
	"strings"

	hex "github.com/tmthrgd/go-hex"
)

var ErrNotHex = errors.New("util: not a hex string")

// NormalizeHex lowercases s and drops spaces, tabs and colons between
// digit pairs.
func NormalizeHex(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', ':', '\n', '\r':
			return -1
		}
		return r
	}, s)
	return strings.ToLower(s)
}

func IsLikelyHex(s string) bool {
	s = NormalizeHex(s)
	if s == "" || len(s)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// DecodeHex decodes s after NormalizeHex.
func DecodeHex(s string) ([]byte, error) {
	if !IsLikelyHex(s) {
		return nil, ErrNotHex
	}
	return hex.DecodeString(NormalizeHex(s))
}
