package filter

import "oui-spy.klederson.com/internal/radio"

// Matches reports whether address satisfies any pattern. A 6-digit pattern
// matches the first three address bytes, a 12-digit pattern the whole
// address; other lengths are ignored. Nothing is allocated, so it is safe to
// call from the radio callback.
func Matches(address string, patterns []Entry) bool {
	var addr [12]byte
	n, ok := normalizeInto(addr[:], address)
	if !ok || n != 12 {
		return false
	}
	return matchNormalized(&addr, patterns)
}

// MatchAddress is Matches for an already-parsed address.
func MatchAddress(a radio.Address, patterns []Entry) bool {
	const digits = "0123456789ABCDEF"
	var addr [12]byte
	for i, b := range a {
		addr[2*i] = digits[b>>4]
		addr[2*i+1] = digits[b&0x0F]
	}
	return matchNormalized(&addr, patterns)
}

func matchNormalized(addr *[12]byte, patterns []Entry) bool {
	var pat [12]byte
	for _, p := range patterns {
		n, ok := normalizeInto(pat[:], string(p))
		if !ok {
			continue
		}
		switch n {
		case 6:
			if [6]byte(pat[:6]) == [6]byte(addr[:6]) {
				return true
			}
		case 12:
			if pat == *addr {
				return true
			}
		}
	}
	return false
}

// normalizeInto writes the uppercase hex digits of s into dst. It fails on a
// non-hex character or when s holds more digits than dst.
func normalizeInto(dst []byte, s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isDelim(c) {
			continue
		}
		u, ok := upperHex(c)
		if !ok || n == len(dst) {
			return n, false
		}
		dst[n] = u
		n++
	}
	return n, true
}
