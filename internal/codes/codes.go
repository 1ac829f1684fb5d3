// Package codes generates the short shareable codes that address teams,
// families and snapshots. Codes are bearer capabilities: whoever holds one
// can use it, so draws come from crypto/rand rather than a seeded PRNG.
//
// Each code class is its own uniqueness namespace: a team code may equal a
// share code, but never another team code. Collision checking is therefore
// delegated to the caller via an ExistsFunc scoped to one namespace.
package codes

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/perfpulse/pulselink/internal/apperror"
)

// Alphabet is the uppercase-alphanumeric draw set. Codes are generated and
// stored uppercase; user input is folded with Normalize before any lookup.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// TeamLength and FamilyLength match the 6-character join codes users
	// read out over the phone; ShareLength is 8 because snapshots are
	// longer-lived and handed to third parties.
	TeamLength   = 6
	FamilyLength = 6
	ShareLength  = 8

	// maxAttempts bounds the collision-retry loop. 36^6 is ~2.2e9 codes,
	// so hitting this bound means the namespace is effectively saturated
	// and the caller should surface an error instead of spinning.
	maxAttempts = 4096
)

// ExistsFunc reports whether a candidate code is already taken in the
// caller's namespace.
type ExistsFunc func(code string) (bool, error)

// Generate draws codes of the given length until one misses the namespace,
// up to maxAttempts. Nothing is committed here; the draw is side-effect
// free and the caller persists the winning code.
//
// Returns apperror.ErrExhausted (wrapped) if the bound is hit.
func Generate(length int, exists ExistsFunc) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("codes: invalid length %d", length)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := draw(length)
		if err != nil {
			return "", err
		}

		taken, err := exists(code)
		if err != nil {
			return "", fmt.Errorf("codes: checking collision: %w", err)
		}
		if !taken {
			return code, nil
		}
	}

	return "", apperror.Exhausted(fmt.Sprintf("%d-char", length))
}

// Normalize folds a user-submitted code to the stored form: surrounding
// whitespace trimmed, letters uppercased. Apply before every lookup.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func draw(length int) (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("codes: reading randomness: %w", err)
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}
