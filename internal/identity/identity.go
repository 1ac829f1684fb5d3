// Package identity derives canonical keys from user-supplied identity
// strings. The canonical key is the sole stable lookup key for a profile:
// Register and every later Login must land on the same document no matter
// how the user typed their name.
package identity

import "strings"

// Canonicalize lowercases the raw identity and strips every character
// outside [a-z0-9._-], spaces included. It is deterministic and idempotent:
// Canonicalize(Canonicalize(x)) == Canonicalize(x).
//
// An empty result means the input was invalid; callers must never use the
// empty key for a lookup.
func Canonicalize(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z',
			r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
