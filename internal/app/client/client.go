// Package client is the vault CLI's application layer. Records are
// encrypted here before they leave the process and decrypted only after
// they arrive; the server and the local cache see ciphertext alone.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/exp/slog"

	"vaultkeeper/internal/app/client/config"
	"vaultkeeper/internal/app/client/crypto"
	"vaultkeeper/internal/apperr"
	"vaultkeeper/internal/domain/record"
	"vaultkeeper/internal/domain/transfer"
)

const decodeLimit = 8

type App struct {
	cfg   *config.Config
	log   *slog.Logger
	api   *APIClient
	cache *Cache
	state stateFile
	store crypto.KeyStore
	auth  AuthState
	vault *crypto.VaultSession
	now   func() time.Time
}

// Status describes the login and the vault at one instant.
type Status struct {
	LoggedIn bool
	Username string
	IsAdmin  bool
	Vault    crypto.State
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	cache, err := OpenCache(cfg.CachePath)
	if err != nil {
		return nil, err
	}

	store, err := openKeyStore(cfg, log)
	if err != nil {
		cache.Close()
		return nil, err
	}

	api := NewAPIClient(cfg.BaseURL(), cfg.Timeout, log)

	a, err := newApp(cfg, log, api, cache, store)
	if err != nil {
		cache.Close()
		return nil, err
	}
	return a, nil
}

// openKeyStore keeps the key for the shell when a runtime directory exists.
// Otherwise the key lives for this process only.
func openKeyStore(cfg *config.Config, log *slog.Logger) (crypto.KeyStore, error) {
	if cfg.RuntimeDir == "" {
		log.Debug("no runtime dir, vault key kept in memory")
		return crypto.NewMemoryStore()
	}
	return crypto.OpenRuntimeStore(cfg.RuntimeDir, cfg.SessionSecret)
}

func newApp(cfg *config.Config, log *slog.Logger, api *APIClient, cache *Cache, store crypto.KeyStore) (*App, error) {
	a := &App{
		cfg:   cfg,
		log:   log.With("component", "client"),
		api:   api,
		cache: cache,
		state: stateFile{path: cfg.TokenPath},
		store: store,
		now:   time.Now,
	}

	st, err := a.state.load()
	switch {
	case err == nil:
		a.attach(st)
	case errors.Is(err, ErrNotLoggedIn):
	default:
		return nil, err
	}

	return a, nil
}

func (a *App) Close() error {
	return a.cache.Close()
}

// SessionSecret is the value the shell must export as VAULTKEEPER_SESSION
// for the next invocation to find the unlocked key.
func (a *App) SessionSecret() string {
	if rs, ok := a.store.(*crypto.RuntimeStore); ok {
		return rs.Secret()
	}
	return ""
}

// NewShellSession reports whether this invocation started a fresh shell
// key store rather than joining an exported one.
func (a *App) NewShellSession() bool {
	return a.cfg.SessionSecret == "" && a.SessionSecret() != ""
}

func (a *App) CheckConnection(ctx context.Context) error {
	return a.api.Health(ctx)
}

func (a *App) attach(st AuthState) {
	a.auth = st
	a.api.SetToken(st.Token)
	a.vault = crypto.NewVaultSession(
		crypto.SaltForUser(st.UserID),
		a.cfg.KDFIterations,
		a.cfg.Window,
		a.store,
		crypto.WithClock(a.now),
		crypto.WithLogger(a.log),
	)
}

func (a *App) loggedIn() error {
	if a.vault == nil {
		return ErrNotLoggedIn
	}
	return nil
}

func (a *App) Register(ctx context.Context, username, password string) (int, error) {
	return a.api.Register(ctx, username, password)
}

// Login opens a server session and unlocks the vault with the same
// password. The server never sees the derived key.
func (a *App) Login(ctx context.Context, username, password string) (AuthState, error) {
	res, err := a.api.Login(ctx, username, password)
	if err != nil {
		return AuthState{}, err
	}

	st := AuthState{
		Token:    res.Token,
		UserID:   res.User.ID,
		Username: res.User.Username,
		IsAdmin:  res.User.IsAdmin,
	}
	if err := a.store.Clear(); err != nil {
		return AuthState{}, fmt.Errorf("clear previous key: %w", err)
	}
	if err := a.state.save(st); err != nil {
		return AuthState{}, err
	}
	a.attach(st)

	if err := a.vault.Unlock(ctx, password); err != nil {
		return AuthState{}, fmt.Errorf("unlock vault: %w", err)
	}

	a.log.Info("logged in", slog.Int("user_id", st.UserID))
	return st, nil
}

// Logout locks the vault and ends the server session. The local state
// is cleared even when the server no longer knows the session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.loggedIn(); err != nil {
		return err
	}

	if err := a.vault.Lock(); err != nil {
		return fmt.Errorf("lock vault: %w", err)
	}

	err := a.api.Logout(ctx)
	if err != nil && !errors.Is(err, apperr.ErrAuthentication) {
		return err
	}

	if err := a.state.clear(); err != nil {
		return err
	}

	a.log.Info("logged out", slog.Int("user_id", a.auth.UserID))
	a.auth = AuthState{}
	a.vault = nil
	a.api.SetToken("")
	return nil
}

func (a *App) Unlock(ctx context.Context, passphrase string) error {
	if err := a.loggedIn(); err != nil {
		return err
	}
	return a.vault.Unlock(ctx, passphrase)
}

func (a *App) Lock() error {
	if err := a.loggedIn(); err != nil {
		return err
	}
	return a.vault.Lock()
}

func (a *App) Status() Status {
	if a.vault == nil {
		return Status{Vault: crypto.Locked{}}
	}
	return Status{
		LoggedIn: true,
		Username: a.auth.Username,
		IsAdmin:  a.auth.IsAdmin,
		Vault:    a.vault.CheckStatus(),
	}
}

func (a *App) unlocked() (*record.Codec, error) {
	if err := a.loggedIn(); err != nil {
		return nil, err
	}
	if _, ok := a.vault.CheckStatus().(crypto.Unlocked); !ok {
		return nil, crypto.ErrVaultLocked
	}
	return record.NewCodec(a.vault), nil
}

func (a *App) Add(ctx context.Context, cred record.Credential) (record.WireRecord, error) {
	codec, err := a.unlocked()
	if err != nil {
		return record.WireRecord{}, err
	}
	if cred.Name == "" {
		return record.WireRecord{}, apperr.Validation("name is required")
	}

	w, err := codec.ToWire(cred)
	if err != nil {
		return record.WireRecord{}, err
	}

	created, err := a.api.CreateRecord(ctx, w)
	if err != nil {
		return record.WireRecord{}, err
	}

	a.cachePut(ctx, created)
	return created, nil
}

// List decrypts every record of the logged-in user. Online listings
// refresh the cache; offline ones read it.
func (a *App) List(ctx context.Context, offline bool) ([]record.Decoded, error) {
	codec, err := a.unlocked()
	if err != nil {
		return nil, err
	}

	var recs []record.WireRecord
	if offline {
		recs, err = a.cache.List(ctx, a.auth.UserID)
		if err != nil {
			return nil, err
		}
	} else {
		recs, err = a.api.ListRecords(ctx)
		if err != nil {
			return nil, err
		}
		if err := a.cache.Replace(ctx, a.auth.UserID, recs); err != nil {
			a.log.Warn("cache not refreshed", slog.String("error", err.Error()))
		}
	}

	return codec.DecodeAll(ctx, recs, decodeLimit)
}

func (a *App) Get(ctx context.Context, id int) (record.Decoded, error) {
	codec, err := a.unlocked()
	if err != nil {
		return record.Decoded{}, err
	}

	w, err := a.api.GetRecord(ctx, id)
	if err != nil {
		return record.Decoded{}, err
	}
	a.cachePut(ctx, w)

	cred, failed, err := codec.FromWire(w)
	if err != nil {
		return record.Decoded{}, err
	}
	return record.Decoded{Credential: cred, Failed: failed}, nil
}

// Edit sets the given bare fields of a record. An empty value clears the
// field. A field that failed to decrypt and is not being replaced keeps
// its original ciphertext.
func (a *App) Edit(ctx context.Context, id int, changes map[string]string) (record.WireRecord, error) {
	codec, err := a.unlocked()
	if err != nil {
		return record.WireRecord{}, err
	}
	if len(changes) == 0 {
		return record.WireRecord{}, apperr.Validation("nothing to change")
	}
	for name := range changes {
		if _, ok := record.FieldByBare(name); !ok {
			return record.WireRecord{}, apperr.Validation(fmt.Sprintf("unknown field %q", name))
		}
	}
	if v, ok := changes["name"]; ok && v == "" {
		return record.WireRecord{}, apperr.Validation("name is required")
	}

	current, err := a.api.GetRecord(ctx, id)
	if err != nil {
		return record.WireRecord{}, err
	}

	cred, failed, err := codec.FromWire(current)
	if err != nil {
		return record.WireRecord{}, err
	}
	for name, v := range changes {
		f, _ := record.FieldByBare(name)
		*f.Plain(&cred) = v
	}

	w, err := codec.ToWire(cred)
	if err != nil {
		return record.WireRecord{}, err
	}
	for _, name := range failed {
		if _, changed := changes[name]; changed {
			continue
		}
		f, _ := record.FieldByBare(name)
		*f.Encrypted(&w) = *f.Encrypted(&current)
	}

	updated, err := a.api.UpdateRecord(ctx, w)
	if err != nil {
		return record.WireRecord{}, err
	}

	a.cachePut(ctx, updated)
	return updated, nil
}

func (a *App) Delete(ctx context.Context, id int) error {
	if err := a.loggedIn(); err != nil {
		return err
	}
	if err := a.api.DeleteRecord(ctx, id); err != nil {
		return err
	}

	if err := a.cache.Delete(ctx, a.auth.UserID, id); err != nil {
		a.log.Warn("cached record not removed", slog.Int("record_id", id), slog.String("error", err.Error()))
	}
	return nil
}

func (a *App) cachePut(ctx context.Context, w record.WireRecord) {
	if err := a.cache.Put(ctx, a.auth.UserID, w); err != nil {
		a.log.Warn("record not cached", slog.Int("record_id", w.ID), slog.String("error", err.Error()))
	}
}

func (a *App) RequestReset(ctx context.Context, username string) error {
	return a.api.RequestReset(ctx, username)
}

// RedeemReset sets a new account password. Records encrypted under the
// old password stay encrypted under the old key.
func (a *App) RedeemReset(ctx context.Context, token, newPassword string) error {
	return a.api.RedeemReset(ctx, token, newPassword)
}

func (a *App) SetupAdmin(ctx context.Context, username, password string) (int, error) {
	return a.api.SetupAdmin(ctx, username, password)
}

// Export writes the whole store as indented JSON.
func (a *App) Export(ctx context.Context, w io.Writer) (transfer.Stats, error) {
	if err := a.loggedIn(); err != nil {
		return transfer.Stats{}, err
	}

	doc, err := a.api.Export(ctx)
	if err != nil {
		return transfer.Stats{}, err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return transfer.Stats{}, fmt.Errorf("write export: %w", err)
	}

	return transfer.Stats{Users: len(doc.Users), Records: len(doc.Records)}, nil
}

func (a *App) Import(ctx context.Context, r io.Reader, truncate bool) (transfer.Stats, error) {
	if err := a.loggedIn(); err != nil {
		return transfer.Stats{}, err
	}

	var doc transfer.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return transfer.Stats{}, apperr.Wrap(apperr.ErrValidation, "malformed export document", err)
	}

	return a.api.Import(ctx, doc, truncate)
}
