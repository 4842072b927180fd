// Package crypto holds the client side of the vault: key derivation,
// field encryption and the time-boxed session that owns the derived key.
package crypto

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strconv"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the client-side PBKDF2 cost. It runs once per unlock
	// on the user's machine and is independent of the server password hash cost.
	DefaultIterations = 600000

	keyLength = 32 // AES-256
)

var ErrKeyNotExportable = errors.New("derived key cannot be serialized")

// DerivedKey wraps the raw vault key. It refuses every serialization path;
// only this package reads the bytes.
type DerivedKey struct {
	b []byte
}

// DeriveKey runs PBKDF2-HMAC-SHA256. The same inputs always give the same key.
// An empty passphrase is accepted; rejecting it is the caller's policy.
func DeriveKey(passphrase, salt string, iterations int) *DerivedKey {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &DerivedKey{
		b: pbkdf2.Key([]byte(passphrase), []byte(salt), iterations, keyLength, sha256.New),
	}
}

// DeriveKeyContext runs DeriveKey on its own goroutine. If ctx ends first the
// result is abandoned and ctx.Err() returned.
func DeriveKeyContext(ctx context.Context, passphrase, salt string, iterations int) (*DerivedKey, error) {
	done := make(chan *DerivedKey, 1)
	go func() {
		done <- DeriveKey(passphrase, salt, iterations)
	}()

	select {
	case key := <-done:
		return key, nil
	case <-ctx.Done():
		go func() { (<-done).Wipe() }()
		return nil, ctx.Err()
	}
}

// SaltForUser returns the KDF salt for an account: its numeric id as text.
func SaltForUser(id int) string {
	return strconv.Itoa(id)
}

// Wipe zeroes the key in place. A wiped key fails every cipher call.
func (k *DerivedKey) Wipe() {
	if k == nil {
		return
	}
	for i := range k.b {
		k.b[i] = 0
	}
	k.b = nil
}

// Equal compares two keys in constant time.
func (k *DerivedKey) Equal(other *DerivedKey) bool {
	if k == nil || other == nil || len(k.b) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(k.b, other.b) == 1
}

func (k *DerivedKey) String() string   { return "DerivedKey(redacted)" }
func (k *DerivedKey) GoString() string { return k.String() }

func (k *DerivedKey) MarshalJSON() ([]byte, error)   { return nil, ErrKeyNotExportable }
func (k *DerivedKey) MarshalText() ([]byte, error)   { return nil, ErrKeyNotExportable }
func (k *DerivedKey) MarshalBinary() ([]byte, error) { return nil, ErrKeyNotExportable }

func (k *DerivedKey) usable() bool {
	return k != nil && len(k.b) == keyLength
}
