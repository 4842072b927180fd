package crypto

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

// DefaultWindow is how long an unlock stays valid. It is fixed at unlock time.
const DefaultWindow = 15 * time.Minute

// ErrVaultLocked means the caller has to ask for the passphrase again.
var ErrVaultLocked = errors.New("vault is locked")

// State is either Locked or Unlocked.
type State interface {
	isState()
}

type Locked struct{}

type Unlocked struct {
	ExpiresAt time.Time
}

func (Locked) isState()   {}
func (Unlocked) isState() {}

type vaultState interface {
	public() State
}

type lockedState struct{}

type unlockedState struct {
	key       *DerivedKey
	expiresAt time.Time
}

func (lockedState) public() State     { return Locked{} }
func (s unlockedState) public() State { return Unlocked{ExpiresAt: s.expiresAt} }

type Option func(*VaultSession)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *VaultSession) { s.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *VaultSession) { s.log = log.With(slog.String("component", "vault")) }
}

// VaultSession owns the derived key. It is the only place the key is
// replaced or wiped; everyone else goes through Seal and Open.
type VaultSession struct {
	mu         sync.RWMutex
	state      vaultState
	salt       string
	iterations int
	window     time.Duration
	store      KeyStore
	now        func() time.Time
	log        *slog.Logger
}

// NewVaultSession always starts Locked, whatever the store holds.
// A nil store disables persistence.
func NewVaultSession(salt string, iterations int, window time.Duration, store KeyStore, opts ...Option) *VaultSession {
	if window <= 0 {
		window = DefaultWindow
	}

	s := &VaultSession{
		state:      lockedState{},
		salt:       salt,
		iterations: iterations,
		window:     window,
		store:      store,
		now:        time.Now,
		log:        slog.Default().With(slog.String("component", "vault")),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Unlock derives the key and starts a new window. A failure leaves the
// session Locked and is not retried.
func (s *VaultSession) Unlock(ctx context.Context, passphrase string) error {
	key, err := DeriveKeyContext(ctx, passphrase, s.salt, s.iterations)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.discard()
	expiresAt := s.now().Add(s.window)
	s.state = unlockedState{key: key, expiresAt: expiresAt}

	if s.store != nil {
		if err := s.store.Save(key, s.salt, expiresAt); err != nil {
			s.log.Warn("wrapped key not persisted", slog.String("error", err.Error()))
		}
	}

	s.log.Debug("vault unlocked", slog.Time("expires_at", expiresAt))
	return nil
}

// CheckStatus expires a stale key and restores a persisted one that is
// still inside its window.
func (s *VaultSession) CheckStatus() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch st := s.state.(type) {
	case unlockedState:
		if s.expired(st.expiresAt) {
			s.log.Debug("vault expired")
			s.discard()
			s.clearStore()
		}
	case lockedState:
		s.restore()
	}

	return s.state.public()
}

// Lock wipes the key and the persisted copy before returning.
func (s *VaultSession) Lock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discard()
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			return err
		}
	}

	s.log.Debug("vault locked")
	return nil
}

func (s *VaultSession) Salt() string {
	return s.salt
}

// Seal encrypts under the session key. Expiry is not extended.
func (s *VaultSession) Seal(plaintext string) (string, error) {
	var out string
	err := s.withKey(func(key *DerivedKey) error {
		var err error
		out, err = Encrypt(key, plaintext)
		return err
	})
	return out, err
}

func (s *VaultSession) Open(wire string) (string, error) {
	var out string
	err := s.withKey(func(key *DerivedKey) error {
		var err error
		out, err = Decrypt(key, wire)
		return err
	})
	return out, err
}

// withKey runs fn under the read lock so Lock cannot wipe the key mid-call.
func (s *VaultSession) withKey(fn func(*DerivedKey) error) error {
	for attempt := 0; attempt < 2; attempt++ {
		s.mu.RLock()
		if st, ok := s.state.(unlockedState); ok && !s.expired(st.expiresAt) {
			err := fn(st.key)
			s.mu.RUnlock()
			return err
		}
		s.mu.RUnlock()

		if _, ok := s.CheckStatus().(Unlocked); !ok {
			return ErrVaultLocked
		}
	}
	return ErrVaultLocked
}

func (s *VaultSession) expired(expiresAt time.Time) bool {
	return !s.now().Before(expiresAt)
}

// callers hold mu
func (s *VaultSession) discard() {
	if st, ok := s.state.(unlockedState); ok {
		st.key.Wipe()
	}
	s.state = lockedState{}
}

func (s *VaultSession) clearStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Clear(); err != nil {
		s.log.Warn("wrapped key not cleared", slog.String("error", err.Error()))
	}
}

func (s *VaultSession) restore() {
	if s.store == nil {
		return
	}

	key, expiresAt, err := s.store.Load(s.salt)
	if err != nil {
		if !errors.Is(err, ErrNoWrappedKey) {
			s.log.Debug("wrapped key discarded", slog.String("error", err.Error()))
		}
		return
	}

	if s.expired(expiresAt) {
		key.Wipe()
		s.clearStore()
		return
	}

	s.state = unlockedState{key: key, expiresAt: expiresAt}
	s.log.Debug("vault restored", slog.Time("expires_at", expiresAt))
}
