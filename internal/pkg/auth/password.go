package auth

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher defines hashing strategy for credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
}

// BcryptHasher uses bcrypt to hash passwords.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates BcryptHasher with provided cost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns bcrypt hash for provided password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	encoded, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// Compare checks password against stored hash.
func (h *BcryptHasher) Compare(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// CodeGate checks the shared withdrawal code presented on submission.
// A gate built from an empty code accepts everything.
type CodeGate struct {
	digest  [sha256.Size]byte
	enabled bool
}

// NewCodeGate builds a gate for the configured code.
func NewCodeGate(code string) *CodeGate {
	if code == "" {
		return &CodeGate{}
	}
	return &CodeGate{digest: sha256.Sum256([]byte(code)), enabled: true}
}

// Enabled reports whether a code is required.
func (g *CodeGate) Enabled() bool {
	return g != nil && g.enabled
}

// Allow compares candidate against the configured code in constant time.
func (g *CodeGate) Allow(candidate string) bool {
	if !g.Enabled() {
		return true
	}
	sum := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(sum[:], g.digest[:]) == 1
}
