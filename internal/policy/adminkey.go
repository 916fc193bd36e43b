package policy

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// NewAdminKey generates an organization admin key. The plaintext is shown to
// the caller once; only the bcrypt hash is stored.
func NewAdminKey() (plain string, hash []byte, err error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("generate admin key: %w", err)
	}
	plain = "ak_" + hex.EncodeToString(raw)

	hash, err = HashAdminKey(plain, bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}
	return plain, hash, nil
}

// HashAdminKey hashes key at the given bcrypt cost.
func HashAdminKey(key string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return nil, fmt.Errorf("hash admin key: %w", err)
	}
	return hash, nil
}
