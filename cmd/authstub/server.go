package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"sync"

	pawnAuth "github.com/MrEthical07/pawnAuth"
	"github.com/MrEthical07/pawnAuth/jwt"
	"github.com/MrEthical07/pawnAuth/password"
	"github.com/google/uuid"
)

const maxRequestBytes = 16 << 10

var (
	errEmailTaken       = errors.New("email already registered")
	errUnknownUser      = errors.New("unknown user")
	errPasswordMismatch = errors.New("password mismatch")
)

type account struct {
	profile pawnAuth.UserProfile
	hash    string
}

// server is an in-memory stand-in for the pawn-shop auth API.
type server struct {
	hasher *password.Argon2
	issuer *jwt.Issuer
	logger *slog.Logger

	mu       sync.RWMutex
	accounts map[string]*account
}

func newServer(hasher *password.Argon2, issuer *jwt.Issuer, logger *slog.Logger) *server {
	return &server{
		hasher:   hasher,
		issuer:   issuer,
		logger:   logger,
		accounts: make(map[string]*account),
	}
}

func (s *server) routes(prefix string) http.Handler {
	prefix = strings.TrimRight(prefix, "/")
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+prefix+"/signin", s.handleSignIn)
	mux.HandleFunc("POST "+prefix+"/login", s.handleLogIn)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// register creates an account for creds. The username defaults to the
// local part of the address.
func (s *server) register(creds pawnAuth.Credentials, username string, roles []string) (*account, error) {
	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, err
	}
	if username == "" {
		username, _, _ = strings.Cut(creds.Email, "@")
	}

	key := strings.ToLower(creds.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; ok {
		return nil, errEmailTaken
	}
	a := &account{
		profile: pawnAuth.UserProfile{
			ID:       uuid.NewString(),
			Username: username,
			Email:    creds.Email,
			Roles:    roles,
		},
		hash: hash,
	}
	s.accounts[key] = a
	return a, nil
}

func (s *server) authenticate(creds pawnAuth.Credentials) (*account, error) {
	s.mu.RLock()
	a, ok := s.accounts[strings.ToLower(creds.Email)]
	s.mu.RUnlock()
	if !ok {
		return nil, errUnknownUser
	}
	match, err := s.hasher.Verify(creds.Password, a.hash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, errPasswordMismatch
	}
	return a, nil
}

// handleSignIn authenticates a known account or registers a new one.
func (s *server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decode(w, r)
	if !ok {
		return
	}

	a, err := s.authenticate(creds)
	switch {
	case errors.Is(err, errUnknownUser):
		a, err = s.register(creds, "", []string{"clerk"})
		if errors.Is(err, password.ErrPasswordTooShort) || errors.Is(err, password.ErrPasswordTooLong) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, errEmailTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
	case errors.Is(err, errPasswordMismatch):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	case errors.Is(err, password.ErrPasswordTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "sign in failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.respond(w, r, a)
}

func (s *server) handleLogIn(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decode(w, r)
	if !ok {
		return
	}

	a, err := s.authenticate(creds)
	if errors.Is(err, errUnknownUser) || errors.Is(err, errPasswordMismatch) || errors.Is(err, password.ErrPasswordTooLong) {
		s.logger.InfoContext(r.Context(), "log in rejected", slog.String("reason", err.Error()))
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "log in failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.respond(w, r, a)
}

func (s *server) decode(w http.ResponseWriter, r *http.Request) (pawnAuth.Credentials, bool) {
	var creds pawnAuth.Credentials
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&creds); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return creds, false
	}
	if _, err := mail.ParseAddress(creds.Email); err != nil || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return creds, false
	}
	return creds, true
}

func (s *server) respond(w http.ResponseWriter, r *http.Request, a *account) {
	token, err := s.issuer.Issue(a.profile.ID, a.profile.Username, a.profile.Roles)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "issue token", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.logger.InfoContext(r.Context(), "token issued",
		slog.String("user_id", a.profile.ID),
		slog.String("path", r.URL.Path),
	)
	user := a.profile.Clone()
	writeJSON(w, http.StatusOK, pawnAuth.AuthResponse{Token: token, User: user})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
