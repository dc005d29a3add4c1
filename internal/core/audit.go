package core

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"

	"github.com/JonMunkholm/SentinelAdmin/internal/logging"
	"github.com/JonMunkholm/SentinelAdmin/internal/metrics"
)

// Audit action types.
const (
	ActionSentinelImport = "sentinel.import"
	ActionSentinelCreate = "sentinel.create"
	ActionSentinelUpdate = "sentinel.update"
	ActionSentinelDelete = "sentinel.delete"
	ActionAdminCreate    = "admin.create"
	ActionLogin          = "auth.login"
	ActionLoginFailed    = "auth.login_failed"
)

// Audit target types.
const (
	TargetSentinelUser = "sentinel_user"
	TargetAdminUser    = "admin_user"
)

// Column limits of the audit_logs table.
const (
	auditMaxUsername  = 50
	auditMaxRole      = 50
	auditMaxAction    = 100
	auditMaxTarget    = 100
	auditMaxSummary   = 255
	auditMaxIP        = 45
	auditMaxUserAgent = 255
)

// AuditEvent describes one mutating action. Actor fields left empty are
// taken from the principal in context.
type AuditEvent struct {
	ActorID       int64
	ActorUsername string
	ActorRole     string
	ActionType    string
	TargetType    string
	TargetID      int64
	Summary       string
	Details       any
}

// AuditRecorder writes audit entries. Record never returns an error and
// never panics: failures are logged and counted.
type AuditRecorder struct {
	store AuditStore
}

// NewAuditRecorder creates a recorder. A nil store makes Record a logged no-op.
func NewAuditRecorder(store AuditStore) *AuditRecorder {
	return &AuditRecorder{store: store}
}

// Record persists ev with the request's principal, client IP and user agent.
func (r *AuditRecorder) Record(ctx context.Context, ev AuditEvent) {
	logger := logging.WithFields(ctx, "action", ev.ActionType)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("audit: panic while recording", "panic", rec)
			metrics.AuditWritesTotal.WithLabelValues("failed").Inc()
		}
	}()

	if r == nil || r.store == nil {
		logger.Warn("audit: store not initialized, entry skipped")
		metrics.AuditWritesTotal.WithLabelValues("skipped").Inc()
		return
	}

	entry := buildAuditEntry(ctx, ev)
	if ev.Details != nil {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			logger.Warn("audit: details not serializable", "error", err)
		} else {
			entry.Details = string(b)
		}
	}

	if err := r.store.InsertAuditLog(ctx, entry); err != nil {
		if errors.Is(err, ErrStoreNotReady) {
			logger.Warn("audit: store not ready, entry skipped")
			metrics.AuditWritesTotal.WithLabelValues("skipped").Inc()
			return
		}
		logger.Error("audit: failed to write entry", "error", err)
		metrics.AuditWritesTotal.WithLabelValues("failed").Inc()
		return
	}
	metrics.AuditWritesTotal.WithLabelValues("ok").Inc()
}

func buildAuditEntry(ctx context.Context, ev AuditEvent) AuditEntry {
	p, hasPrincipal := PrincipalFromContext(ctx)

	actorID := ev.ActorID
	if actorID == 0 && hasPrincipal {
		actorID = p.ID
	}
	username := ev.ActorUsername
	if username == "" && hasPrincipal {
		username = p.Username
	}
	role := ev.ActorRole
	if role == "" && hasPrincipal {
		role = p.Role
	}

	entry := AuditEntry{
		ActorUsername: Sanitize(username, auditMaxUsername),
		ActorRole:     Sanitize(role, auditMaxRole),
		ActionType:    Sanitize(ev.ActionType, auditMaxAction),
		TargetType:    Sanitize(ev.TargetType, auditMaxTarget),
		Summary:       Sanitize(ev.Summary, auditMaxSummary),
		IPAddress:     Sanitize(GetIPAddressFromContext(ctx), auditMaxIP),
		UserAgent:     Sanitize(GetUserAgentFromContext(ctx), auditMaxUserAgent),
	}
	if actorID != 0 {
		entry.ActorID = &actorID
	}
	if ev.TargetID != 0 {
		targetID := ev.TargetID
		entry.TargetID = &targetID
	}
	return entry
}

// ClientIP resolves the address recorded in audit entries: the first entry
// of forwardedFor when present, otherwise the host part of peerAddr.
// IPv4-mapped IPv6 addresses lose their "::ffff:" prefix and the IPv6
// loopback becomes 127.0.0.1.
func ClientIP(forwardedFor, peerAddr string) string {
	var ip string
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		ip = strings.TrimSpace(first)
	}
	if ip == "" {
		ip = peerAddr
		if host, _, err := net.SplitHostPort(peerAddr); err == nil {
			ip = host
		}
	}

	ip = strings.TrimPrefix(ip, "::ffff:")
	if ip == "::1" {
		return "127.0.0.1"
	}
	return ip
}
