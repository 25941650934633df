package pawnAuth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/pawnAuth/internal/broadcast"
	"github.com/MrEthical07/pawnAuth/jwt"
	"github.com/MrEthical07/pawnAuth/storage"
	"github.com/google/uuid"
)

type authFlow uint8

const (
	flowSignIn authFlow = iota
	flowLogIn
)

func (f authFlow) String() string {
	if f == flowSignIn {
		return "sign_in"
	}
	return "log_in"
}

// Manager is the single authority for the operator session. Build it with
// [New]; the zero value is not usable.
//
// All session mutations happen under one mutex, including the durable
// writes that mirror them, so memory and storage change together and
// concurrent log-ins resolve last-write-wins.
type Manager struct {
	config    Config
	storage   storage.Adapter
	auth      Authenticator
	nav       Navigator
	validator jwt.Validator
	now       func() time.Time
	logger    *slog.Logger
	audit     *auditDispatcher
	metrics   *Metrics

	ready *broadcast.Value[bool]
	user  *broadcast.Value[*UserProfile]

	mu          sync.Mutex
	token       string
	expiresAt   time.Time
	sessionID   string
	installedAt time.Time
	profile     *UserProfile
	profileRaw  string
	// gen advances on every install and clear; a pending log-in grace
	// publication only fires if gen is unchanged.
	gen    uint64
	grace  *time.Timer
	closed bool
	// stale is set while durable storage lags behind memory after a failed
	// write; memory is authoritative until a resync succeeds.
	stale bool
	// audit events raised under mu, delivered by unlock.
	pending []AuditEvent
}

// Hydrate loads the session from durable storage. Build calls it once;
// calling it again with unchanged storage leaves the session as it was.
//
// A valid stored token is installed and readiness becomes true. An absent,
// expired or malformed token clears memory and storage without navigating.
// Without an adapter there is nothing to read and readiness stays false. A
// storage read error leaves the in-memory session untouched.
func (m *Manager) Hydrate(ctx context.Context) {
	if m.storage == nil {
		return
	}

	m.mu.Lock()
	defer m.unlock(ctx)
	if m.closed {
		return
	}
	if m.stale {
		m.syncLocked(ctx, "hydrate")
		if m.stale {
			return
		}
	}

	token, ok, err := m.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		m.storageFailedLocked(ctx, "hydrate", err)
		return
	}
	if !ok || token == "" || m.validator.Expired(token) {
		if ok && token != "" {
			m.tokenExpiredLocked(ctx)
		}
		m.clearLocked(ctx)
		m.metricInc(MetricHydrateEmpty)
		m.queueAuditLocked(ctx, auditEventHydrate, false, "", "", nil, nil)
		return
	}

	raw, found, err := m.storage.Get(ctx, storage.KeyCurrentUser)
	if err != nil {
		m.storageFailedLocked(ctx, "hydrate", err)
		found = false
	}
	var profile *UserProfile
	if found {
		profile, err = decodeProfile(raw)
		if err != nil || profile == nil {
			m.logger.WarnContext(ctx, "ignoring malformed stored profile", slog.Any("error", err))
			found = false
		}
	}

	tokenChanged := token != m.token
	if tokenChanged {
		m.gen++
		m.stopGraceLocked()
		m.installLocked(token)
	}
	switch {
	case found && raw != m.profileRaw:
		m.setProfileLocked(profile, raw)
	case !found && tokenChanged:
		m.setProfileLocked(nil, "")
	}
	if !m.ready.Get() {
		m.ready.Set(true)
	}

	m.metricInc(MetricHydrateRestored)
	m.logger.DebugContext(ctx, "session restored",
		slog.String("session_id", m.sessionID),
		slog.Time("expires_at", m.expiresAt),
	)
	m.queueAuditLocked(ctx, auditEventHydrate, true, m.profileID(), m.sessionID, nil, nil)
}

// GetToken returns the active token, or "" when there is none.
//
// Without durable storage the in-memory token is returned as is. Otherwise
// the stored token is re-checked on every call; an expired or malformed one
// clears the session and yields "". While storage is unreadable, or behind
// memory after a failed write, the in-memory token is checked instead.
func (m *Manager) GetToken(ctx context.Context) string {
	m.mu.Lock()
	defer m.unlock(ctx)

	if m.storage == nil {
		return m.token
	}

	token := m.currentTokenLocked(ctx, "get_token")
	if token == "" {
		return ""
	}
	if m.validator.Expired(token) {
		m.tokenExpiredLocked(ctx)
		m.clearLocked(ctx)
		return ""
	}
	return token
}

// IsAuthenticated reports whether GetToken returns a token.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	return m.GetToken(ctx) != ""
}

// SignIn exchanges creds at the authenticator's sign-in endpoint and installs
// the returned session. Readiness is announced before SignIn returns.
func (m *Manager) SignIn(ctx context.Context, creds Credentials) (*Session, error) {
	return m.authenticate(ctx, flowSignIn, creds)
}

// LogIn exchanges creds at the authenticator's log-in endpoint and installs
// the returned session. The profile is published immediately; readiness is
// announced after Config.Readiness.LoginGrace unless a logout or newer
// install happens first.
//
// On any error the previous session is left untouched.
func (m *Manager) LogIn(ctx context.Context, creds Credentials) (*Session, error) {
	return m.authenticate(ctx, flowLogIn, creds)
}

func (m *Manager) authenticate(ctx context.Context, flow authFlow, creds Credentials) (*Session, error) {
	event, okMetric, failMetric := auditEventLogIn, MetricLogInSuccess, MetricLogInFailure
	if flow == flowSignIn {
		event, okMetric, failMetric = auditEventSignIn, MetricSignInSuccess, MetricSignInFailure
	}

	fail := func(err error) (*Session, error) {
		m.metricInc(failMetric)
		m.logger.InfoContext(ctx, "authentication failed",
			slog.String("flow", flow.String()),
			slog.Any("error", err),
		)
		m.emitAudit(ctx, event, false, "", "", err, nil)
		return nil, err
	}

	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return fail(ErrInvalidCredentials)
	}
	if m.auth == nil {
		return fail(ErrAuthenticatorMissing)
	}
	if m.isClosed() {
		return fail(ErrClosed)
	}

	start := time.Now()
	var (
		resp AuthResponse
		err  error
	)
	if flow == flowSignIn {
		resp, err = m.auth.SignIn(ctx, creds)
	} else {
		resp, err = m.auth.LogIn(ctx, creds)
	}
	m.metricObserve(MetricRemoteAuthLatency, time.Since(start))
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrRemoteAuth, err))
	}

	token := normalizeToken(resp.Token)
	if token == "" {
		return fail(fmt.Errorf("%w: missing token", ErrInvalidResponse))
	}
	if m.validator.Expired(token) {
		return fail(fmt.Errorf("%w: token expired or malformed", ErrInvalidResponse))
	}

	profile := resp.User.Clone()
	var raw string
	if profile != nil {
		b, err := json.Marshal(profile)
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrInvalidResponse, err))
		}
		raw = string(b)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return fail(ErrClosed)
	}
	m.gen++
	gen := m.gen
	m.stopGraceLocked()
	m.installLocked(token)
	m.setProfileLocked(profile, raw)
	m.syncLocked(ctx, "persist")
	if grace := m.config.Readiness.LoginGrace; flow == flowLogIn && grace > 0 {
		m.grace = time.AfterFunc(grace, func() { m.announceReady(gen) })
	} else {
		m.ready.Set(true)
	}
	s := m.sessionLocked()
	m.unlock(ctx)

	m.metricInc(okMetric)
	m.logger.InfoContext(ctx, "session installed",
		slog.String("flow", flow.String()),
		slog.String("session_id", s.ID),
		slog.Time("expires_at", s.ExpiresAt),
	)
	m.emitAudit(ctx, event, true, profileID(s.User), s.ID, nil, nil)
	return s, nil
}

func (m *Manager) announceReady(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.gen != gen {
		return
	}
	m.grace = nil
	m.ready.Set(true)
}

// GetCurrentUser returns the cached profile. When none is cached but durable
// storage holds one, it is loaded, cached and published. A malformed stored
// profile yields nil.
func (m *Manager) GetCurrentUser(ctx context.Context) *UserProfile {
	m.mu.Lock()
	defer m.unlock(ctx)

	if m.profile != nil {
		return m.profile.Clone()
	}
	if m.storage == nil || m.closed {
		return nil
	}
	if m.stale {
		m.syncLocked(ctx, "get_current_user")
		if m.stale {
			return nil
		}
	}

	raw, ok, err := m.storage.Get(ctx, storage.KeyCurrentUser)
	if err != nil {
		m.storageFailedLocked(ctx, "get_current_user", err)
		return nil
	}
	if !ok {
		return nil
	}
	profile, err := decodeProfile(raw)
	if err != nil {
		m.logger.WarnContext(ctx, "ignoring malformed stored profile", slog.Any("error", err))
		return nil
	}
	if profile == nil {
		return nil
	}
	m.setProfileLocked(profile, raw)
	return profile.Clone()
}

// Logout clears the session in memory and in durable storage, resets
// readiness to false, cancels a pending log-in announcement and navigates to
// Config.Navigation.LoginPath.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	sessionID, userID := m.sessionID, m.profileID()
	m.clearLocked(ctx)
	m.unlock(ctx)

	m.metricInc(MetricLogout)
	m.logger.InfoContext(ctx, "session cleared", slog.String("session_id", sessionID))
	m.emitAudit(ctx, auditEventLogout, true, userID, sessionID, nil, nil)

	m.nav.NavigateTo(m.config.Navigation.LoginPath)
}

// CheckExpiration logs out when the current token is expired, malformed or
// absent, and reports whether it did.
func (m *Manager) CheckExpiration(ctx context.Context) bool {
	m.mu.Lock()
	token := m.currentTokenLocked(ctx, "check_expiration")
	expired := m.validator.Expired(token)
	if expired && token != "" {
		m.tokenExpiredLocked(ctx)
	}
	m.unlock(ctx)

	if expired {
		m.Logout(ctx)
	}
	return expired
}

// TokenReady subscribes to readiness. The current value is delivered first.
// Callers must Cancel the subscription when done.
func (m *Manager) TokenReady() *broadcast.Subscription[bool] {
	return m.ready.Subscribe()
}

// CurrentUser subscribes to the published profile; nil means signed out.
// Delivered profiles are shared between subscribers and must not be mutated.
func (m *Manager) CurrentUser() *broadcast.Subscription[*UserProfile] {
	return m.user.Subscribe()
}

// Ready returns the latest readiness value.
func (m *Manager) Ready() bool {
	return m.ready.Get()
}

// WaitReady blocks until readiness is true, ctx is done or the manager is
// closed.
func (m *Manager) WaitReady(ctx context.Context) error {
	_, err := broadcast.WaitFor(ctx, m.ready, func(ready bool) bool { return ready })
	if errors.Is(err, broadcast.ErrClosed) {
		return ErrClosed
	}
	return err
}

// Session returns a copy of the installed session, or nil.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return nil
	}
	return m.sessionLocked()
}

// ObserveGuard counts a route guard decision.
func (m *Manager) ObserveGuard(allowed bool) {
	if allowed {
		m.metricInc(MetricGuardAllowed)
		return
	}
	m.metricInc(MetricGuardDenied)
}

// Close stops pending timers, ends all subscriptions and flushes the audit
// dispatcher. The session in durable storage is kept.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.stopGraceLocked()
	m.mu.Unlock()

	m.ready.Close()
	m.user.Close()
	if m.audit != nil {
		m.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

// MetricsSnapshot returns the current counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) installLocked(token string) {
	exp, _ := jwt.Expiry(token)
	m.token = token
	m.expiresAt = exp
	m.sessionID = uuid.NewString()
	m.installedAt = m.now()
}

// syncLocked writes the in-memory session to durable storage, or removes
// the stored one when memory is empty. A failed write marks storage stale.
func (m *Manager) syncLocked(ctx context.Context, op string) {
	if m.storage == nil {
		return
	}
	keys := []string{storage.KeyToken, storage.KeyCurrentUser}

	var err error
	if m.token == "" {
		err = m.storage.Remove(ctx, keys...)
	} else {
		set := []storage.Entry{{Key: storage.KeyToken, Value: m.token}}
		if m.profileRaw != "" {
			set = append(set, storage.Entry{Key: storage.KeyCurrentUser, Value: m.profileRaw})
		}
		err = storage.Replace(ctx, m.storage, keys, set)
	}
	if err != nil {
		m.stale = true
		m.storageFailedLocked(ctx, op, err)
		return
	}
	m.stale = false
}

// currentTokenLocked returns the token to judge: the stored one, or the
// in-memory one while storage cannot be read or trusted.
func (m *Manager) currentTokenLocked(ctx context.Context, op string) string {
	if m.storage == nil {
		return m.token
	}
	if m.stale {
		m.syncLocked(ctx, op)
		if m.stale {
			return m.token
		}
	}
	token, ok, err := m.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		m.storageFailedLocked(ctx, op, err)
		return m.token
	}
	if !ok {
		return ""
	}
	return token
}

// unlock releases mu, then delivers the audit events raised while it was
// held. A blocking sink must never stall other session readers.
func (m *Manager) unlock(ctx context.Context) {
	events := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, ev := range events {
		m.audit.Emit(ctx, ev)
	}
}

func (m *Manager) setProfileLocked(p *UserProfile, raw string) {
	m.profile = p
	m.profileRaw = raw
	m.user.Set(p.Clone())
}

// clearLocked empties the session. Readiness drops before the profile so no
// reader sees readiness with a missing profile.
func (m *Manager) clearLocked(ctx context.Context) {
	m.gen++
	m.stopGraceLocked()

	m.token = ""
	m.expiresAt = time.Time{}
	m.sessionID = ""
	m.installedAt = time.Time{}

	if m.ready.Get() {
		m.ready.Set(false)
	}
	if m.profile != nil || m.user.Get() != nil {
		m.setProfileLocked(nil, "")
	}
	m.profileRaw = ""

	m.syncLocked(ctx, "clear")
}

func (m *Manager) tokenExpiredLocked(ctx context.Context) {
	m.metricInc(MetricTokenExpired)
	m.logger.InfoContext(ctx, "token expired", slog.String("session_id", m.sessionID))
	m.queueAuditLocked(ctx, auditEventTokenExpired, true, m.profileID(), m.sessionID, nil, nil)
}

func (m *Manager) stopGraceLocked() {
	if m.grace != nil {
		m.grace.Stop()
		m.grace = nil
	}
}

func (m *Manager) sessionLocked() *Session {
	return &Session{
		ID:          m.sessionID,
		Token:       m.token,
		User:        m.profile.Clone(),
		ExpiresAt:   m.expiresAt,
		InstalledAt: m.installedAt,
	}
}

func (m *Manager) profileID() string {
	return profileID(m.profile)
}

func profileID(p *UserProfile) string {
	if p == nil {
		return ""
	}
	return p.ID
}

func decodeProfile(raw string) (*UserProfile, error) {
	var p *UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	return p, nil
}

// normalizeToken strips surrounding space and an optional "Bearer " scheme.
func normalizeToken(token string) string {
	token = strings.TrimSpace(token)
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}
