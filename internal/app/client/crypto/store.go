package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const (
	// SessionEnv carries the per-shell wrapping secret between CLI invocations.
	SessionEnv = "VAULTKEEPER_SESSION"

	sessionPermissions = 0600
	sessionDirPerm     = 0700
	wrapSecretLength   = 32
)

var ErrNoWrappedKey = errors.New("no wrapped key")

// KeyStore keeps a wrapped copy of the vault key for the lifetime of one
// shell session. The copy is useless outside that session.
type KeyStore interface {
	Save(key *DerivedKey, salt string, expiresAt time.Time) error
	Load(salt string) (*DerivedKey, time.Time, error)
	Clear() error
}

type wrappedKey struct {
	ExpiresAt time.Time `json:"expires_at"`
	Blob      []byte    `json:"blob"`
}

// salt and expiry are bound as additional data: editing the expiry or
// loading under another account breaks the tag
func wrap(secret []byte, key *DerivedKey, salt string, expiresAt time.Time) (wrappedKey, error) {
	if !key.usable() {
		return wrappedKey{}, errKeyUnavailable
	}
	expiresAt = expiresAt.UTC().Round(0)

	blob, err := seal(secret, key.b, bindingAD(salt, expiresAt))
	if err != nil {
		return wrappedKey{}, fmt.Errorf("wrap key: %w", err)
	}

	return wrappedKey{ExpiresAt: expiresAt, Blob: blob}, nil
}

func unwrap(secret []byte, w wrappedKey, salt string) (*DerivedKey, error) {
	raw, err := open(secret, w.Blob, bindingAD(salt, w.ExpiresAt.UTC()))
	if err != nil {
		return nil, err
	}
	if len(raw) != keyLength {
		return nil, fmt.Errorf("unwrap key: unexpected length %d", len(raw))
	}

	return &DerivedKey{b: raw}, nil
}

func bindingAD(salt string, t time.Time) []byte {
	return []byte(salt + "|" + strconv.FormatInt(t.UnixNano(), 10))
}

func newWrapSecret() ([]byte, error) {
	secret := make([]byte, wrapSecretLength)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return secret, nil
}

// MemoryStore keeps the wrapped key inside the process.
type MemoryStore struct {
	mu      sync.Mutex
	secret  []byte
	wrapped *wrappedKey
}

func NewMemoryStore() (*MemoryStore, error) {
	secret, err := newWrapSecret()
	if err != nil {
		return nil, err
	}
	return &MemoryStore{secret: secret}, nil
}

func (s *MemoryStore) Save(key *DerivedKey, salt string, expiresAt time.Time) error {
	w, err := wrap(s.secret, key, salt, expiresAt)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.wrapped = &w
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Load(salt string) (*DerivedKey, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wrapped == nil {
		return nil, time.Time{}, ErrNoWrappedKey
	}

	key, err := unwrap(s.secret, *s.wrapped, salt)
	if err != nil {
		s.wrapped = nil
		return nil, time.Time{}, err
	}

	return key, s.wrapped.ExpiresAt, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.wrapped = nil
	s.mu.Unlock()
	return nil
}

// RuntimeStore writes the wrapped key to a 0600 file under the user's runtime
// directory. The wrapping secret never touches disk: it lives in the shell
// environment (SessionEnv), so a new shell cannot unwrap an old file.
type RuntimeStore struct {
	dir    string
	secret []byte
}

// DefaultRuntimeDir returns the store directory under XDG_RUNTIME_DIR, which
// is per-login and tmpfs backed, or "" when there is none.
func DefaultRuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "vaultkeeper")
	}
	return ""
}

// OpenRuntimeStore attaches to the session identified by encodedSecret, or
// starts a new one when it is empty.
func OpenRuntimeStore(dir, encodedSecret string) (*RuntimeStore, error) {
	var secret []byte
	if encodedSecret == "" {
		s, err := newWrapSecret()
		if err != nil {
			return nil, err
		}
		secret = s
	} else {
		s, err := base64.RawURLEncoding.DecodeString(encodedSecret)
		if err != nil || len(s) != wrapSecretLength {
			return nil, fmt.Errorf("malformed %s value", SessionEnv)
		}
		secret = s
	}

	if err := os.MkdirAll(dir, sessionDirPerm); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	sweepExpired(dir, time.Now())

	return &RuntimeStore{dir: dir, secret: secret}, nil
}

// sweepExpired removes session files of closed shells. Only the plaintext
// expiry is read; a file that cannot be decoded is removed as well.
func sweepExpired(dir string, now time.Time) {
	paths, err := filepath.Glob(filepath.Join(dir, "session-*.json"))
	if err != nil {
		return
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var w wrappedKey
		if err := json.Unmarshal(data, &w); err == nil && now.Before(w.ExpiresAt) {
			continue
		}
		_ = os.Remove(path)
	}
}

// Secret is the value to export as SessionEnv.
func (s *RuntimeStore) Secret() string {
	return base64.RawURLEncoding.EncodeToString(s.secret)
}

func (s *RuntimeStore) path() string {
	sum := sha256.Sum256(s.secret)
	return filepath.Join(s.dir, "session-"+hex.EncodeToString(sum[:8])+".json")
}

func (s *RuntimeStore) Save(key *DerivedKey, salt string, expiresAt time.Time) error {
	w, err := wrap(s.secret, key, salt, expiresAt)
	if err != nil {
		return err
	}

	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, sessionPermissions); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write session: %w", err)
	}

	return nil
}

// Load removes the file when it cannot be unwrapped.
func (s *RuntimeStore) Load(salt string) (*DerivedKey, time.Time, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, time.Time{}, ErrNoWrappedKey
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read session: %w", err)
	}

	var w wrappedKey
	if err := json.Unmarshal(data, &w); err != nil {
		_ = s.Clear()
		return nil, time.Time{}, fmt.Errorf("decode session: %w", err)
	}

	key, err := unwrap(s.secret, w, salt)
	if err != nil {
		_ = s.Clear()
		return nil, time.Time{}, fmt.Errorf("unwrap session: %w", err)
	}

	return key, w.ExpiresAt, nil
}

func (s *RuntimeStore) Clear() error {
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
