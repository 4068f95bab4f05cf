// Package filter holds the watch-list of hardware address patterns and the
// predicate that matches observed addresses against it.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// Rejection reasons returned by Store mutations.
var (
	ErrInvalidFormat    = errors.New("filter must be 6 or 12 hex digits")
	ErrDuplicateEntry   = errors.New("filter already present")
	ErrCapacityExceeded = errors.New("filter store is full")
	ErrStoreBusy        = errors.New("filter store busy")
)

// Entry is a normalized pattern: 6 uppercase hex digits (an OUI prefix) or
// 12 (a full address), no delimiters.
type Entry string

// Normalize strips ':', '-' and whitespace, uppercases, and checks the
// result is 6 or 12 hex digits.
func Normalize(s string) (Entry, error) {
	var sb strings.Builder
	sb.Grow(12)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isDelim(c) {
			continue
		}
		u, ok := upperHex(c)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		sb.WriteByte(u)
	}
	if sb.Len() != 6 && sb.Len() != 12 {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return Entry(sb.String()), nil
}

// IsPrefix reports whether e is an OUI prefix rather than a full address.
func (e Entry) IsPrefix() bool { return len(e) == 6 }

// Pretty renders the entry with ':' between byte pairs.
func (e Entry) Pretty() string {
	if len(e)%2 != 0 {
		return string(e)
	}
	var sb strings.Builder
	for i := 0; i < len(e); i += 2 {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteString(string(e[i : i+2]))
	}
	return sb.String()
}

func isDelim(c byte) bool {
	switch c {
	case ':', '-', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

func upperHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9', c >= 'A' && c <= 'F':
		return c, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 'A', true
	}
	return 0, false
}
