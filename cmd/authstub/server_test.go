package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pawnAuth "github.com/MrEthical07/pawnAuth"
	"github.com/MrEthical07/pawnAuth/jwt"
	"github.com/MrEthical07/pawnAuth/password"
	"github.com/MrEthical07/pawnAuth/remote"
	"github.com/MrEthical07/pawnAuth/storage"
)

func newTestServer(t *testing.T) (*server, *httptest.Server) {
	t.Helper()
	hasher, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	issuer, err := jwt.NewIssuer(jwt.Config{
		TTL:           time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("authstub-test-secret-0123456789ab"),
	})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	srv := newServer(hasher, issuer, slog.New(slog.DiscardHandler))
	ts := httptest.NewServer(srv.routes("/api/auth"))
	t.Cleanup(ts.Close)
	return srv, ts
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func TestSignInRegistersThenLogInSucceeds(t *testing.T) {
	srv, ts := newTestServer(t)

	resp, raw := post(t, ts.URL+"/api/auth/signin", `{"email":"clerk@pawn.example","password":"secret1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign in: %d %s", resp.StatusCode, raw)
	}
	var out pawnAuth.AuthResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.User == nil || out.User.Username != "clerk" || out.Token == "" {
		t.Fatalf("unexpected response %s", raw)
	}

	claims, err := srv.issuer.Parse(out.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UID != out.User.ID {
		t.Fatalf("token uid %q does not match user %q", claims.UID, out.User.ID)
	}

	resp, raw = post(t, ts.URL+"/api/auth/login", `{"email":"CLERK@pawn.example","password":"secret1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("log in: %d %s", resp.StatusCode, raw)
	}
}

func TestLogInRejections(t *testing.T) {
	srv, ts := newTestServer(t)
	if _, err := srv.register(pawnAuth.Credentials{Email: "a@b.com", Password: "secret1"}, "alice", nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"wrong password", "/login", `{"email":"a@b.com","password":"nope-nope"}`, http.StatusUnauthorized},
		{"unknown user", "/login", `{"email":"x@b.com","password":"secret1"}`, http.StatusUnauthorized},
		{"bad email", "/login", `{"email":"not-an-email","password":"secret1"}`, http.StatusBadRequest},
		{"empty body", "/login", ``, http.StatusBadRequest},
		{"garbage", "/signin", `{`, http.StatusBadRequest},
		{"sign in wrong password", "/signin", `{"email":"a@b.com","password":"nope-nope"}`, http.StatusUnauthorized},
		{"sign in short password", "/signin", `{"email":"new@b.com","password":"12345"}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := post(t, ts.URL+"/api/auth"+tc.path, tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d %s", tc.want, resp.StatusCode, raw)
			}
		})
	}
}

func TestStubServesSessionManager(t *testing.T) {
	_, ts := newTestServer(t)

	client, err := remote.New(pawnAuth.RemoteConfig{BaseURL: ts.URL + "/api/auth", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	cfg := pawnAuth.DefaultConfig()
	cfg.Readiness.LoginGrace = 10 * time.Millisecond
	m, err := pawnAuth.New().
		WithConfig(cfg).
		WithStorage(storage.NewMemory()).
		WithAuthenticator(client).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer m.Close()

	ctx := context.Background()
	creds := pawnAuth.Credentials{Email: "owner@pawn.example", Password: "secret1"}
	if _, err := m.LogIn(ctx, creds); !errors.Is(err, pawnAuth.ErrUnauthorized) {
		t.Fatalf("expected unauthorized before registration, got %v", err)
	}
	if _, err := m.SignIn(ctx, creds); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	m.Logout(ctx)

	s, err := m.LogIn(ctx, creds)
	if err != nil {
		t.Fatalf("log in: %v", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.WaitReady(waitCtx); err != nil {
		t.Fatalf("wait ready: %v", err)
	}
	if !m.IsAuthenticated(ctx) || s.User == nil || s.User.Username != "owner" {
		t.Fatalf("unexpected session %+v", s)
	}
}
