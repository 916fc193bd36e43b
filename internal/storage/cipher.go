package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ErrIntegrity is returned when decrypted content does not match its hash.
var ErrIntegrity = errors.New("file integrity check failed")

// sealer encrypts blobs with AES-256-GCM; the nonce is prepended to the
// ciphertext.
type sealer struct {
	gcm cipher.AEAD
}

func newSealer(keyHex string) (*sealer, error) {
	if keyHex == "" {
		return nil, errors.New("encryption key is required (64 hex characters)")
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key format: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex characters)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &sealer{gcm: gcm}, nil
}

func (s *sealer) seal(data []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, data, nil), nil
}

func (s *sealer) open(blob []byte) ([]byte, error) {
	n := s.gcm.NonceSize()
	if len(blob) < n {
		return nil, errors.New("encrypted data too short")
	}
	plain, err := s.gcm.Open(nil, blob[:n], blob[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}
	return plain, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum validates data against its stored SHA-256 hex digest.
func VerifyChecksum(data []byte, expected string) error {
	if actual := checksum(data); actual != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrIntegrity, expected, actual)
	}
	return nil
}
