package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for PINs stored in canonical
// documents. PINs are short, so the work factor is the only thing standing
// between a leaked database and every account; 12 is the sensible floor.
const defaultCost = 12

// PINService hashes and verifies account PINs.
//
// It is a struct rather than free functions so the cost can be lowered in
// tests; cost 12 is ~250ms per operation, which would dominate the test
// suite.
//
// Legacy documents hold plaintext PINs; the service layer detects them
// with IsHashed, compares by equality, and only stores hashes from then on.
type PINService struct {
	cost int
}

// NewPINService creates a PINService with the production cost.
func NewPINService() *PINService {
	return &PINService{cost: defaultCost}
}

// NewPINServiceForTest creates a PINService with a reduced cost. Do not use
// outside tests.
func NewPINServiceForTest(cost int) *PINService {
	return &PINService{cost: cost}
}

// Hash hashes a plaintext PIN with bcrypt. The output embeds salt and cost,
// so it is stored directly in the profile document's pin field.
func (p *PINService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates beyond 72 bytes; reject instead.
		return "", fmt.Errorf("auth: PIN must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing PIN: %w", err)
	}
	return string(hashed), nil
}

// IsHashed reports whether stored parses as a bcrypt hash. Legacy
// documents carry plaintext PINs, which never do.
func (p *PINService) IsHashed(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}

// Verify checks a plaintext PIN against a stored hash. Returns nil on
// match. Comparison is constant-time inside bcrypt.
func (p *PINService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid PIN")
		}
		return fmt.Errorf("auth: comparing PIN hash: %w", err)
	}
	return nil
}
