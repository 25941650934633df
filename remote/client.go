package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	pawnAuth "github.com/MrEthical07/pawnAuth"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	signInPath = "/signin"
	logInPath  = "/login"

	maxResponseBytes = 1 << 20
	maxErrorBody     = 512
)

// ErrUnauthorized is matched by a [StatusError] carrying 401 or 403.
var ErrUnauthorized = pawnAuth.ErrUnauthorized

// StatusError reports a non-2xx answer from the authenticator.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote auth: status %d", e.Code)
	}
	return fmt.Sprintf("remote auth: status %d: %s", e.Code, e.Body)
}

// Unwrap exposes [ErrUnauthorized] for rejected credentials.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// Option customizes a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. The configured timeout is
// not applied to a supplied client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.hc = c
			cl.custom = true
		}
	}
}

// Client implements [pawnAuth.Authenticator] against the pawn-shop auth API.
type Client struct {
	baseURL string
	hc      *http.Client
	custom  bool
}

// New returns a Client for cfg.BaseURL.
func New(cfg pawnAuth.RemoteConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("remote: invalid base url %q", cfg.BaseURL)
	}

	c := &Client{baseURL: base}
	for _, opt := range opts {
		opt(c)
	}
	if !c.custom {
		transport := http.DefaultTransport
		if cfg.Instrument {
			transport = otelhttp.NewTransport(transport)
		}
		c.hc = &http.Client{Timeout: cfg.Timeout, Transport: transport}
	} else if cfg.Instrument {
		rt := c.hc.Transport
		if rt == nil {
			rt = http.DefaultTransport
		}
		cp := *c.hc
		cp.Transport = otelhttp.NewTransport(rt)
		c.hc = &cp
	}
	return c, nil
}

// SignIn posts creds to the sign-in endpoint.
func (c *Client) SignIn(ctx context.Context, creds pawnAuth.Credentials) (pawnAuth.AuthResponse, error) {
	return c.post(ctx, signInPath, creds)
}

// LogIn posts creds to the log-in endpoint.
func (c *Client) LogIn(ctx context.Context, creds pawnAuth.Credentials) (pawnAuth.AuthResponse, error) {
	return c.post(ctx, logInPath, creds)
}

func (c *Client) post(ctx context.Context, path string, creds pawnAuth.Credentials) (pawnAuth.AuthResponse, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return pawnAuth.AuthResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return pawnAuth.AuthResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return pawnAuth.AuthResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return pawnAuth.AuthResponse{}, err
	}
	if len(raw) > maxResponseBytes {
		return pawnAuth.AuthResponse{}, errors.New("remote auth: response too large")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pawnAuth.AuthResponse{}, &StatusError{Code: resp.StatusCode, Body: errorBody(raw)}
	}

	var out pawnAuth.AuthResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return pawnAuth.AuthResponse{}, fmt.Errorf("%w: %v", pawnAuth.ErrInvalidResponse, err)
	}
	out.Token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(out.Token), "Bearer "))
	return out, nil
}

// errorBody extracts a short message from an error response, preferring a
// JSON "message" or "error" field.
func errorBody(raw []byte) string {
	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &msg) == nil {
		if msg.Message != "" {
			return msg.Message
		}
		if msg.Error != "" {
			return msg.Error
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
