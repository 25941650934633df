package pawnAuth

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/pawnAuth/jwt"
	"github.com/MrEthical07/pawnAuth/storage"
)

var testEpoch = time.Unix(1_700_000_000, 0)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{t: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNav) NavigateTo(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNav) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type fakeAuth struct {
	calls   atomic.Int64
	respond func(ctx context.Context, flow string, creds Credentials) (AuthResponse, error)
}

func (a *fakeAuth) SignIn(ctx context.Context, creds Credentials) (AuthResponse, error) {
	a.calls.Add(1)
	return a.respond(ctx, "signin", creds)
}

func (a *fakeAuth) LogIn(ctx context.Context, creds Credentials) (AuthResponse, error) {
	a.calls.Add(1)
	return a.respond(ctx, "login", creds)
}

// flakyStore fails every call while fail is set, and only writes while
// failWrites is set.
type flakyStore struct {
	*storage.Memory
	fail       atomic.Bool
	failWrites atomic.Bool
}

func (s *flakyStore) writeErr() error {
	if s.fail.Load() || s.failWrites.Load() {
		return storage.ErrUnavailable
	}
	return nil
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.fail.Load() {
		return "", false, storage.ErrUnavailable
	}
	return s.Memory.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	if err := s.writeErr(); err != nil {
		return err
	}
	return s.Memory.Set(ctx, key, value)
}

func (s *flakyStore) Remove(ctx context.Context, keys ...string) error {
	if err := s.writeErr(); err != nil {
		return err
	}
	return s.Memory.Remove(ctx, keys...)
}

func (s *flakyStore) Replace(ctx context.Context, remove []string, set []storage.Entry) error {
	if err := s.writeErr(); err != nil {
		return err
	}
	return s.Memory.Replace(ctx, remove, set)
}

type harness struct {
	t      *testing.T
	clock  *testClock
	nav    *recordingNav
	issuer *jwt.Issuer
	store  storage.Adapter
	auth   *fakeAuth
}

func newHarness(t *testing.T, store storage.Adapter) *harness {
	t.Helper()
	clock := newTestClock(testEpoch)
	iss, err := jwt.NewIssuer(jwt.Config{
		TTL:           time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("pawnshop-test-secret-0123456789"),
		Issuer:        "pawnshop-api",
	})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	h := &harness{
		t:      t,
		clock:  clock,
		nav:    &recordingNav{},
		issuer: iss.WithClock(clock.Now),
		store:  store,
	}
	h.auth = &fakeAuth{
		respond: func(_ context.Context, _ string, creds Credentials) (AuthResponse, error) {
			return h.response(creds.Email, time.Hour), nil
		},
	}
	return h
}

func (h *harness) token(uid string, ttl time.Duration) string {
	h.t.Helper()
	tok, err := h.issuer.IssueWithTTL(uid, uid, []string{"clerk"}, ttl)
	if err != nil {
		h.t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (h *harness) response(email string, ttl time.Duration) AuthResponse {
	uid := "u-" + strings.SplitN(email, "@", 2)[0]
	return AuthResponse{
		Token: h.token(uid, ttl),
		User:  &UserProfile{ID: uid, Username: uid, Email: email, Roles: []string{"clerk"}},
	}
}

func (h *harness) config() Config {
	cfg := DefaultConfig()
	cfg.Readiness.LoginGrace = 20 * time.Millisecond
	cfg.Metrics.Enabled = true
	return cfg
}

func (h *harness) build(cfg Config) *Manager {
	h.t.Helper()
	m, err := New().
		WithConfig(cfg).
		WithStorage(h.store).
		WithAuthenticator(h.auth).
		WithNavigator(h.nav).
		WithClock(h.clock.Now).
		Build()
	if err != nil {
		h.t.Fatalf("build: %v", err)
	}
	h.t.Cleanup(m.Close)
	return m
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func expectNone[T any](t *testing.T, ch <-chan T, wait time.Duration) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected value %v", v)
		}
	case <-time.After(wait):
	}
}

func stored(t *testing.T, a storage.Adapter, key string) (string, bool) {
	t.Helper()
	v, ok, err := a.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("storage get %s: %v", key, err)
	}
	return v, ok
}
