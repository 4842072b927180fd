package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultkeeper/internal/app/client/config"
	"vaultkeeper/internal/app/client/crypto"
	"vaultkeeper/internal/apperr"
	"vaultkeeper/internal/domain/record"
	"vaultkeeper/internal/domain/transfer"
	"vaultkeeper/internal/domain/user"
	"vaultkeeper/internal/utils/logger"
)

const (
	testIterations = 1000
	testToken      = "session-token"
	testPassword   = "CorrectHorse!23"
)

// fakeServer speaks just enough of the vault API for one user with id 7.
type fakeServer struct {
	mu       sync.Mutex
	records  map[int]record.WireRecord
	nextID   int
	loggedIn bool
	imported *transfer.Document
	truncate string
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()

	f := &fakeServer{records: map[int]record.WireRecord{}, nextID: 1}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
	})
	mux.HandleFunc("POST /user/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] == "taken" {
			writeProblem(w, http.StatusConflict, "conflict", "username is already taken")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int{"user_id": 7})
	})
	mux.HandleFunc("POST /user/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != testPassword {
			writeProblem(w, http.StatusUnauthorized, "authentication", "authentication failed")
			return
		}
		f.mu.Lock()
		f.loggedIn = true
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, LoginResult{
			Token: testToken,
			User:  user.Summary{ID: 7, Username: body["username"], IsAdmin: true},
		})
	})
	mux.HandleFunc("POST /user/logout", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.loggedIn = false
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	}))
	mux.HandleFunc("GET /api/records", f.authed(func(w http.ResponseWriter, r *http.Request) {
		out := make([]record.WireRecord, 0, len(f.records))
		for i := 1; i < f.nextID; i++ {
			if rec, ok := f.records[i]; ok {
				out = append(out, rec)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}))
	mux.HandleFunc("POST /api/records", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "id", "server assigns ids")
		assert.NotContains(t, body, "owner_id")

		rec := decodeRecord(t, body)
		rec.ID = f.nextID
		rec.OwnerID = 7
		rec.ModifiedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		f.records[rec.ID] = rec
		f.nextID++
		writeJSON(w, http.StatusCreated, rec)
	}))
	mux.HandleFunc("GET /api/records/{id}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := f.lookup(r)
		if !ok {
			writeProblem(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}))
	mux.HandleFunc("PUT /api/records/{id}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		old, ok := f.lookup(r)
		if !ok {
			writeProblem(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rec := decodeRecord(t, body)
		rec.ID, rec.OwnerID, rec.ModifiedAt = old.ID, old.OwnerID, old.ModifiedAt.Add(time.Minute)
		f.records[rec.ID] = rec
		writeJSON(w, http.StatusOK, rec)
	}))
	mux.HandleFunc("DELETE /api/records/{id}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		rec, ok := f.lookup(r)
		if !ok {
			writeProblem(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		delete(f.records, rec.ID)
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /admin/export", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, transfer.Document{
			Version: transfer.DocumentVersion,
			Users:   []transfer.UserRow{{ID: 7, Username: "alice", PasswordHash: "h"}},
			Records: []record.WireRecord{},
		})
	}))
	mux.HandleFunc("POST /admin/import", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var doc transfer.Document
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		f.imported = &doc
		f.truncate = r.URL.Query().Get("truncate")
		writeJSON(w, http.StatusOK, transfer.Stats{Users: len(doc.Users), Records: len(doc.Records)})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeServer) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+testToken || !f.loggedIn {
			writeProblem(w, http.StatusUnauthorized, "authentication", "authentication failed")
			return
		}
		next(w, r)
	}
}

func (f *fakeServer) lookup(r *http.Request) (record.WireRecord, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return record.WireRecord{}, false
	}
	rec, ok := f.records[id]
	return rec, ok
}

func (f *fakeServer) record(id int) record.WireRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id]
}

func (f *fakeServer) setRecord(rec record.WireRecord) {
	f.mu.Lock()
	f.records[rec.ID] = rec
	f.mu.Unlock()
}

func decodeRecord(t *testing.T, body map[string]any) record.WireRecord {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	var rec record.WireRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	return rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, kind, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   kind,
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}

func newTestApp(t *testing.T, baseURL string, store crypto.KeyStore) *App {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		ServerAddress: "test",
		ConfigDir:     dir,
		TokenPath:     filepath.Join(dir, "token.json"),
		CachePath:     filepath.Join(dir, "cache.db"),
		KDFIterations: testIterations,
		Window:        crypto.DefaultWindow,
		Timeout:       5 * time.Second,
	}

	cache, err := OpenCache(cfg.CachePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	if store == nil {
		store, err = crypto.NewMemoryStore()
		require.NoError(t, err)
	}

	app, err := newApp(cfg, logger.Discard(), NewAPIClient(baseURL, cfg.Timeout, logger.Discard()), cache, store)
	require.NoError(t, err)
	return app
}

func loginTestApp(t *testing.T, app *App) {
	t.Helper()
	_, err := app.Login(context.Background(), "alice", testPassword)
	require.NoError(t, err)
}

func TestApp_LoginUnlocksVault(t *testing.T) {
	_, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)

	assert.False(t, app.Status().LoggedIn)

	st, err := app.Login(context.Background(), "alice", testPassword)
	require.NoError(t, err)
	assert.Equal(t, 7, st.UserID)

	status := app.Status()
	assert.True(t, status.LoggedIn)
	assert.Equal(t, "alice", status.Username)
	assert.IsType(t, crypto.Unlocked{}, status.Vault)
	assert.Equal(t, crypto.SaltForUser(7), app.vault.Salt())
}

func TestApp_LoginRejected(t *testing.T) {
	_, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)

	_, err := app.Login(context.Background(), "alice", "wrong")

	assert.ErrorIs(t, err, apperr.ErrAuthentication)
	assert.False(t, app.Status().LoggedIn)
}

type recordingStore struct {
	crypto.KeyStore
	ops []string
}

func (s *recordingStore) Save(key *crypto.DerivedKey, salt string, expiresAt time.Time) error {
	s.ops = append(s.ops, "save")
	return s.KeyStore.Save(key, salt, expiresAt)
}

func (s *recordingStore) Clear() error {
	s.ops = append(s.ops, "clear")
	return s.KeyStore.Clear()
}

func TestApp_LoginClearsPreviousKey(t *testing.T) {
	_, srv := newFakeServer(t)
	mem, err := crypto.NewMemoryStore()
	require.NoError(t, err)

	other := crypto.SaltForUser(3)
	require.NoError(t, mem.Save(crypto.DeriveKey("pw", other, testIterations), other, time.Now().Add(time.Minute)))

	store := &recordingStore{KeyStore: mem}
	app := newTestApp(t, srv.URL, store)
	loginTestApp(t, app)

	assert.Equal(t, []string{"clear", "save"}, store.ops)

	_, _, err = mem.Load(crypto.SaltForUser(7))
	assert.NoError(t, err)
	_, _, err = mem.Load(other)
	assert.Error(t, err, "previous account's key is gone")
}

func TestOpenKeyStore(t *testing.T) {
	tests := []struct {
		name       string
		runtimeDir string
		wantType   crypto.KeyStore
		wantShell  bool
	}{
		{name: "runtime dir", runtimeDir: t.TempDir(), wantType: &crypto.RuntimeStore{}, wantShell: true},
		{name: "no runtime dir", runtimeDir: "", wantType: &crypto.MemoryStore{}, wantShell: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{RuntimeDir: tt.runtimeDir}

			store, err := openKeyStore(cfg, logger.Discard())
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, store)

			app := &App{cfg: cfg, store: store}
			assert.Equal(t, tt.wantShell, app.NewShellSession())
			assert.Equal(t, tt.wantShell, app.SessionSecret() != "")
		})
	}
}

func TestApp_StateSurvivesRestart(t *testing.T) {
	_, srv := newFakeServer(t)
	store, err := crypto.NewMemoryStore()
	require.NoError(t, err)

	first := newTestApp(t, srv.URL, store)
	loginTestApp(t, first)

	second, err := newApp(first.cfg, logger.Discard(), NewAPIClient(srv.URL, time.Second, logger.Discard()), first.cache, store)
	require.NoError(t, err)

	status := second.Status()
	assert.True(t, status.LoggedIn)
	assert.IsType(t, crypto.Unlocked{}, status.Vault, "wrapped key restored from the store")
}

func TestApp_RecordLifecycle(t *testing.T) {
	fake, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)
	loginTestApp(t, app)
	ctx := context.Background()

	created, err := app.Add(ctx, record.Credential{Name: "mail", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	stored := fake.record(1)
	require.NotNil(t, stored.NameEncrypted)
	assert.NotEqual(t, "mail", *stored.NameEncrypted, "server sees ciphertext only")
	assert.Nil(t, stored.EmailEncrypted, "empty field is never encrypted")

	got, err := app.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "mail", got.Credential.Name)
	assert.Equal(t, "hunter2", got.Credential.Password)
	assert.Empty(t, got.Failed)

	_, err = app.Edit(ctx, 1, map[string]string{"password": "hunter3", "url": "https://mail.example"})
	require.NoError(t, err)

	list, err := app.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hunter3", list[0].Credential.Password)
	assert.Equal(t, "https://mail.example", list[0].Credential.URL)

	require.NoError(t, app.Delete(ctx, 1))
	_, err = app.Get(ctx, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	offline, err := app.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, offline)
}

func TestApp_ListOfflineUsesCache(t *testing.T) {
	_, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)
	loginTestApp(t, app)
	ctx := context.Background()

	_, err := app.Add(ctx, record.Credential{Name: "bank", Notes: "pin 1234"})
	require.NoError(t, err)
	_, err = app.List(ctx, false)
	require.NoError(t, err)

	srv.Close()

	list, err := app.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bank", list[0].Credential.Name)
	assert.Equal(t, "pin 1234", list[0].Credential.Notes)
}

func TestApp_EditKeepsUndecryptableField(t *testing.T) {
	fake, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)
	loginTestApp(t, app)
	ctx := context.Background()

	_, err := app.Add(ctx, record.Credential{Name: "mail", Notes: "secret"})
	require.NoError(t, err)

	foreign, err := crypto.Encrypt(crypto.DeriveKey("other", "8", testIterations), "not ours")
	require.NoError(t, err)
	rec := fake.record(1)
	rec.NotesEncrypted = &foreign
	fake.setRecord(rec)

	got, err := app.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes"}, got.Failed)
	assert.Equal(t, record.DecryptFailedMarker, got.Credential.Notes)

	_, err = app.Edit(ctx, 1, map[string]string{"name": "webmail"})
	require.NoError(t, err)

	notes := fake.record(1).NotesEncrypted
	require.NotNil(t, notes)
	assert.Equal(t, foreign, *notes)
}

func TestApp_EditInvalid(t *testing.T) {
	_, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)
	loginTestApp(t, app)

	tests := []struct {
		name    string
		changes map[string]string
	}{
		{name: "nothing", changes: map[string]string{}},
		{name: "unknown field", changes: map[string]string{"pin": "1"}},
		{name: "clear name", changes: map[string]string{"name": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.Edit(context.Background(), 1, tt.changes)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestApp_LockedVault(t *testing.T) {
	_, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)
	loginTestApp(t, app)
	ctx := context.Background()

	require.NoError(t, app.Lock())
	assert.IsType(t, crypto.Locked{}, app.Status().Vault)

	_, err := app.Add(ctx, record.Credential{Name: "x"})
	assert.ErrorIs(t, err, crypto.ErrVaultLocked)
	_, err = app.List(ctx, false)
	assert.ErrorIs(t, err, crypto.ErrVaultLocked)

	require.NoError(t, app.Unlock(ctx, testPassword))
	_, err = app.Add(ctx, record.Credential{Name: "x"})
	assert.NoError(t, err)
}

func TestApp_WrongPassphraseCannotRead(t *testing.T) {
	_, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)
	loginTestApp(t, app)
	ctx := context.Background()

	_, err := app.Add(ctx, record.Credential{Name: "mail"})
	require.NoError(t, err)

	require.NoError(t, app.Lock())
	require.NoError(t, app.Unlock(ctx, "not the password"))

	got, err := app.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, got.Failed)
}

func TestApp_Logout(t *testing.T) {
	_, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)
	loginTestApp(t, app)

	require.NoError(t, app.Logout(context.Background()))

	assert.False(t, app.Status().LoggedIn)
	_, err := app.state.load()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	err = app.Logout(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestApp_NotLoggedIn(t *testing.T) {
	_, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)
	ctx := context.Background()

	_, err := app.Add(ctx, record.Credential{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
	assert.ErrorIs(t, app.Unlock(ctx, "pw"), ErrNotLoggedIn)
	assert.ErrorIs(t, app.Delete(ctx, 1), ErrNotLoggedIn)
}

func TestApp_Register(t *testing.T) {
	_, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)

	id, err := app.Register(context.Background(), "alice", testPassword)
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	_, err = app.Register(context.Background(), "taken", testPassword)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.EqualError(t, err, "username is already taken")
}

func TestApp_ExportImport(t *testing.T) {
	fake, srv := newFakeServer(t)
	app := newTestApp(t, srv.URL, nil)
	loginTestApp(t, app)
	ctx := context.Background()

	var buf bytes.Buffer
	stats, err := app.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, transfer.Stats{Users: 1}, stats)

	imported, err := app.Import(ctx, &buf, true)
	require.NoError(t, err)
	assert.Equal(t, 1, imported.Users)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotNil(t, fake.imported)
	assert.Equal(t, "alice", fake.imported.Users[0].Username)
	assert.Equal(t, "true", fake.truncate)

	_, err = app.Import(ctx, bytes.NewBufferString("{"), false)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
