package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"vaultkeeper/internal/apperr"
)

const nonceSize = 12

var errKeyUnavailable = errors.New("key is not available")

// Encrypt seals plaintext with AES-256-GCM under a fresh random nonce.
// The wire form is base64(nonce || ciphertext || tag).
func Encrypt(key *DerivedKey, plaintext string) (string, error) {
	if !key.usable() {
		return "", errKeyUnavailable
	}

	blob, err := seal(key.b, []byte(plaintext), nil)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. Malformed input, a wrong key and tampering all
// return apperr.ErrIntegrity and nothing else.
func Decrypt(key *DerivedKey, wire string) (string, error) {
	if !key.usable() {
		return "", errKeyUnavailable
	}

	blob, err := base64.StdEncoding.DecodeString(wire)
	if err != nil {
		return "", apperr.ErrIntegrity
	}

	plaintext, err := open(key.b, blob, nil)
	if err != nil {
		return "", apperr.ErrIntegrity
	}

	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm, nil
}

func seal(key, plaintext, additional []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, additional), nil
}

func open(key, blob, additional []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(blob) < nonceSize+gcm.Overhead() {
		return nil, apperr.ErrIntegrity
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, additional)
	if err != nil {
		return nil, apperr.ErrIntegrity
	}

	return plaintext, nil
}

// KeySealer binds a key to the Seal/Open pair the record codec expects.
// The codec never sees the key itself.
type KeySealer struct {
	key *DerivedKey
}

func NewKeySealer(key *DerivedKey) *KeySealer {
	return &KeySealer{key: key}
}

func (s *KeySealer) Seal(plaintext string) (string, error) {
	return Encrypt(s.key, plaintext)
}

func (s *KeySealer) Open(wire string) (string, error) {
	return Decrypt(s.key, wire)
}
