package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	pawnAuth "github.com/MrEthical07/pawnAuth"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(pawnAuth.RemoteConfig{BaseURL: srv.URL + "/api/auth/", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClientPostsCredentialsToEndpoints(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["email"] != "a@b.com" || body["password"] != "secret1" {
			t.Errorf("unexpected body %v", body)
		}
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"token":"tok","user":{"_id":"u1","username":"alice","branch":"north"}}`))
	})

	creds := pawnAuth.Credentials{Email: "a@b.com", Password: "secret1"}
	resp, err := c.SignIn(context.Background(), creds)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if resp.Token != "tok" || resp.User == nil || resp.User.ID != "u1" || resp.User.Extra["branch"] != "north" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if _, err := c.LogIn(context.Background(), creds); err != nil {
		t.Fatalf("log in: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 2 || paths[0] != "/api/auth/signin" || paths[1] != "/api/auth/login" {
		t.Fatalf("unexpected paths %v", paths)
	}
}

func TestClientStripsBearerPrefix(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"Bearer abc.def.ghi"}`))
	})

	resp, err := c.LogIn(context.Background(), pawnAuth.Credentials{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("log in: %v", err)
	}
	if resp.Token != "abc.def.ghi" {
		t.Fatalf("expected stripped token, got %q", resp.Token)
	}
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantUnauth bool
		wantBody   string
	}{
		{"unauthorized json", http.StatusUnauthorized, `{"message":"bad password"}`, true, "bad password"},
		{"forbidden", http.StatusForbidden, `{"error":"locked"}`, true, "locked"},
		{"server error text", http.StatusInternalServerError, "boom", false, "boom"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.LogIn(context.Background(), pawnAuth.Credentials{Email: "a@b.com", Password: "x"})
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if se.Code != tc.status || se.Body != tc.wantBody {
				t.Fatalf("unexpected status error %+v", se)
			}
			if errors.Is(err, ErrUnauthorized) != tc.wantUnauth {
				t.Fatalf("errors.Is(ErrUnauthorized) = %v", !tc.wantUnauth)
			}
		})
	}
}

func TestErrorBodyKeepsRunesWhole(t *testing.T) {
	raw := strings.Repeat("a", maxErrorBody-1) + "ü and more"
	got := errorBody([]byte(raw))
	if !utf8.ValidString(got) {
		t.Fatalf("truncated body is not valid UTF-8: %q", got[len(got)-4:])
	}
	if len(got) != maxErrorBody-1 {
		t.Fatalf("expected %d bytes, got %d", maxErrorBody-1, len(got))
	}

	short := "nope: ü"
	if got := errorBody([]byte(short)); got != short {
		t.Fatalf("expected short body kept, got %q", got)
	}
}

func TestClientRejectsUndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.SignIn(context.Background(), pawnAuth.Credentials{Email: "a@b.com", Password: "x"})
	if !errors.Is(err, pawnAuth.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestClientRejectsOversizedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"` + strings.Repeat("a", maxResponseBytes) + `"}`))
	})

	if _, err := c.SignIn(context.Background(), pawnAuth.Credentials{Email: "a@b.com", Password: "x"}); err == nil {
		t.Fatal("expected error for oversized body")
	}
}

func TestClientHonoursContext(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.LogIn(ctx, pawnAuth.Credentials{Email: "a@b.com", Password: "x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, base := range []string{"", "/api/auth", "ftp://host/auth", "http://"} {
		if _, err := New(pawnAuth.RemoteConfig{BaseURL: base, Timeout: time.Second}); err == nil {
			t.Fatalf("expected error for %q", base)
		}
	}
}

func TestNewInstrumentedWrapsTransport(t *testing.T) {
	custom := &http.Client{Timeout: time.Second}
	c, err := New(pawnAuth.RemoteConfig{BaseURL: "https://auth.example", Timeout: time.Second, Instrument: true}, WithHTTPClient(custom))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.hc == custom || c.hc.Transport == nil {
		t.Fatal("expected instrumented copy of the supplied client")
	}
	if custom.Transport != nil {
		t.Fatal("supplied client must not be mutated")
	}
}

func TestClientThroughManager(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	m, err := pawnAuth.New().WithAuthenticator(c).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer m.Close()

	_, err = m.LogIn(context.Background(), pawnAuth.Credentials{Email: "a@b.com", Password: "x"})
	if !errors.Is(err, pawnAuth.ErrRemoteAuth) || !errors.Is(err, pawnAuth.ErrUnauthorized) {
		t.Fatalf("expected wrapped unauthorized error, got %v", err)
	}
	if m.Session() != nil {
		t.Fatal("failed log in must not install a session")
	}
}
