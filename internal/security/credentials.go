// Package security holds the password hasher and the access-token codec.
package security

import (
	"sync"

	"task-manager/api/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit. Longer input is rejected,
// never truncated.
const MaxPasswordBytes = 72

// decoyPassword seeds the hash VerifyAbsent compares against.
const decoyPassword = "task-manager/decoy"

type Hasher struct {
	cost int

	decoyOnce sync.Once
	decoy     string
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	if err := CheckPassword(plaintext); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", apperr.Unexpected("PASSWORD_HASH_FAILED", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a
// mismatch.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if len(plaintext) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// VerifyAbsent spends the same bcrypt work as Verify for an account that
// does not exist, then reports a mismatch. Login paths call it so an
// unknown email takes as long as a wrong password.
func (h *Hasher) VerifyAbsent(plaintext string) bool {
	_ = h.Verify(plaintext, h.decoyHash())
	return false
}

func (h *Hasher) decoyHash() string {
	h.decoyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(decoyPassword), h.cost)
		if err == nil {
			h.decoy = string(hash)
		}
	})
	return h.decoy
}

func CheckPassword(plaintext string) error {
	switch {
	case plaintext == "":
		return apperr.Invalid(apperr.Violation{Field: "password", Message: "password is required"})
	case len(plaintext) > MaxPasswordBytes:
		return apperr.New(apperr.KindValidation, "PASSWORD_TOO_LONG", "password must be at most 72 bytes")
	}
	return nil
}
