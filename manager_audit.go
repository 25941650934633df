package pawnAuth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/pawnAuth/storage"
)

const (
	auditEventHydrate      = "hydrate"
	auditEventSignIn       = "sign_in"
	auditEventLogIn        = "log_in"
	auditEventLogout       = "logout"
	auditEventTokenExpired = "token_expired"
	auditEventStorageError = "storage_error"
)

// AuditErrorCode is the stable error label carried in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrRemoteAuth         AuditErrorCode = "remote_auth_failed"
	auditErrInvalidResponse    AuditErrorCode = "invalid_response"
	auditErrNotConfigured      AuditErrorCode = "not_configured"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrClosed             AuditErrorCode = "closed"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}
	m.audit.Emit(ctx, m.auditEvent(eventType, success, userID, sessionID, err, metadataBuilder))
}

// queueAuditLocked is emitAudit for callers holding m.mu; the event goes
// out when the lock is released through unlock.
func (m *Manager) queueAuditLocked(
	_ context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m.audit == nil {
		return
	}
	m.pending = append(m.pending, m.auditEvent(eventType, success, userID, sessionID, err, metadataBuilder))
}

func (m *Manager) auditEvent(
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) AuditEvent {
	event := AuditEvent{
		Timestamp: m.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		Success:   success,
	}
	if metadataBuilder != nil {
		event.Metadata = metadataBuilder()
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}
	return event
}

// storageFailedLocked logs and counts a durable storage error that the
// caller is about to absorb.
func (m *Manager) storageFailedLocked(ctx context.Context, op string, err error) {
	m.metricInc(MetricStorageError)
	m.logger.WarnContext(ctx, "session storage failed, continuing in memory",
		slog.String("op", op),
		slog.Any("error", err),
	)
	m.queueAuditLocked(ctx, auditEventStorageError, false, "", "", err, func() map[string]string {
		return map[string]string{"op": op}
	})
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

func (m *Manager) metricObserve(id MetricID, d time.Duration) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Observe(id, d)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrInvalidResponse):
		return auditErrInvalidResponse
	case errors.Is(err, ErrRemoteAuth):
		return auditErrRemoteAuth
	case errors.Is(err, ErrAuthenticatorMissing):
		return auditErrNotConfigured
	case errors.Is(err, storage.ErrUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrClosed):
		return auditErrClosed
	default:
		return auditErrInternal
	}
}
