package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/resumeai/internal/compiler"
	"github.com/jonathan/resumeai/internal/config"
	"github.com/jonathan/resumeai/internal/db"
	"github.com/jonathan/resumeai/internal/generation"
	"github.com/jonathan/resumeai/internal/llm"
	"github.com/jonathan/resumeai/internal/rendering"
	"github.com/jonathan/resumeai/internal/server/ratelimit"
)

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*db.User
	keys    map[string]*db.APIKey
	pingErr error
	failAll error
}

func newMemStore() *memStore {
	return &memStore{users: map[uuid.UUID]*db.User{}, keys: map[string]*db.APIKey{}}
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateUser(_ context.Context, username, hash string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, u := range m.users {
		if u.Username == username {
			return nil, db.ErrDuplicateUsername
		}
	}
	u := &db.User{ID: uuid.New(), Username: username, PasswordHash: hash, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], m.failAll
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateAPIKey(_ context.Context, userID uuid.UUID, hash, prefix string) (*db.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := &db.APIKey{ID: uuid.New(), UserID: userID, KeyHash: hash, Prefix: prefix, CreatedAt: time.Now()}
	m.keys[hash] = k
	return k, nil
}

func (m *memStore) GetUserByAPIKeyHash(_ context.Context, hash string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	k, ok := m.keys[hash]
	if !ok {
		return nil, nil
	}
	return m.users[k.UserID], nil
}

func (m *memStore) ListAPIKeys(_ context.Context, userID uuid.UUID) ([]db.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.APIKey
	for _, k := range m.keys {
		if k.UserID == userID {
			out = append(out, *k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) DeleteAPIKeyByHash(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[hash]
	delete(m.keys, hash)
	return ok, nil
}

// fakeLLM answers every prompt with text, or fails with err.
type fakeLLM struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ llm.ModelTier) (*llm.Generation, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Generation{Text: f.text, TokenCount: 42}, nil
}

func (f *fakeLLM) GetModel(tier llm.ModelTier) string { return "fake-" + string(tier) }
func (f *fakeLLM) Close() error                       { return nil }

// stubCompiler writes a small PDF, or fails with err.
type stubCompiler struct {
	err       error
	available bool
}

func (c *stubCompiler) Compile(_ context.Context, job compiler.Job) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	pdf := filepath.Join(job.WorkDir, job.JobName+".pdf")
	return pdf, os.WriteFile(pdf, []byte("%PDF-1.5 fake"), 0644)
}

func (c *stubCompiler) Clean(context.Context, string, string) error { return nil }

func (c *stubCompiler) Available() bool { return c.available }

type testEnv struct {
	server   *Server
	store    *memStore
	llm      *fakeLLM
	compiler *stubCompiler
	outDir   string
}

type envOption func(*Deps)

func withLimiter(cfg *ratelimit.Config) envOption {
	return func(d *Deps) { d.Limiter = ratelimit.NewLimiter(cfg) }
}

func withoutStore() envOption {
	return func(d *Deps) { d.Store = nil }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    newMemStore(),
		llm:      &fakeLLM{text: "Generated text."},
		compiler: &stubCompiler{available: true},
		outDir:   t.TempDir(),
	}
	deps := Deps{
		Store:     env.store,
		Generator: generation.NewService(env.llm, nil, nil),
		Render:    rendering.Options{OutputDir: env.outDir, Compiler: env.compiler},
		Passwords: &config.PasswordConfig{BcryptCost: bcrypt.MinCost},
		JWT:       &config.JWTConfig{Secret: testJWTSecret, ExpirationHours: 1},
		Limiter:   ratelimit.NewLimiter(&ratelimit.Config{Enabled: false}),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	s, err := New(0, deps)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	env.server = s
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

// register creates an account and returns its first API key.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/register", map[string]string{"username": username, "password": "correct-horse"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		APIKey string `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.APIKey
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var errBoom = errors.New("boom")
