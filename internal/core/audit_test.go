package core

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JonMunkholm/SentinelAdmin/internal/metrics"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		peer         string
		want         string
	}{
		{"peer with port", "", "192.168.1.5:52100", "192.168.1.5"},
		{"first forwarded entry", "203.0.113.7, 10.0.0.1", "10.0.0.1:443", "203.0.113.7"},
		{"forwarded with spaces", "  198.51.100.2  ", "10.0.0.1:443", "198.51.100.2"},
		{"mapped ipv4 prefix removed", "", "[::ffff:10.0.0.9]:8080", "10.0.0.9"},
		{"mapped ipv4 in header", "::ffff:172.16.0.4", "", "172.16.0.4"},
		{"ipv6 loopback", "", "[::1]:5000", "127.0.0.1"},
		{"peer without port", "", "10.2.3.4", "10.2.3.4"},
		{"empty forwarded entry falls back", ", 10.0.0.1", "192.0.2.1:80", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClientIP(tt.forwardedFor, tt.peer); got != tt.want {
				t.Errorf("ClientIP(%q, %q) = %q, want %q", tt.forwardedFor, tt.peer, got, tt.want)
			}
		})
	}
}

func TestAuditRecorder_DefaultsFromContext(t *testing.T) {
	store := newFakeStore()
	rec := NewAuditRecorder(store)

	ctx := ContextWithPrincipal(context.Background(), Principal{ID: 3, Username: "opal", Role: "admin"})
	ctx = ContextWithIPAddress(ctx, "10.9.8.7")
	ctx = ContextWithUserAgent(ctx, "curl/8.0")

	rec.Record(ctx, AuditEvent{
		ActionType: ActionSentinelDelete,
		TargetType: TargetSentinelUser,
		TargetID:   42,
		Summary:    "Deleted sentinel user x",
		Details:    map[string]string{"username": "x"},
	})

	entries := store.auditEntries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.ActorID == nil || *e.ActorID != 3 || e.ActorUsername != "opal" || e.ActorRole != "admin" {
		t.Errorf("actor = %v %q %q, want 3 opal admin", e.ActorID, e.ActorUsername, e.ActorRole)
	}
	if e.TargetID == nil || *e.TargetID != 42 {
		t.Errorf("target id = %v, want 42", e.TargetID)
	}
	if e.IPAddress != "10.9.8.7" || e.UserAgent != "curl/8.0" {
		t.Errorf("ip/ua = %q/%q", e.IPAddress, e.UserAgent)
	}
	if e.Details != `{"username":"x"}` {
		t.Errorf("details = %q", e.Details)
	}
}

func TestAuditRecorder_ExplicitActorWins(t *testing.T) {
	store := newFakeStore()
	ctx := ContextWithPrincipal(context.Background(), Principal{ID: 3, Username: "opal", Role: "admin"})

	NewAuditRecorder(store).Record(ctx, AuditEvent{ActorUsername: "someone", ActionType: ActionLoginFailed})

	e := store.auditEntries()[0]
	if e.ActorUsername != "someone" || e.ActorRole != "admin" {
		t.Errorf("actor = %q/%q, want someone/admin", e.ActorUsername, e.ActorRole)
	}
}

func TestAuditRecorder_NoPrincipal(t *testing.T) {
	store := newFakeStore()
	NewAuditRecorder(store).Record(context.Background(), AuditEvent{ActionType: ActionSentinelImport})

	e := store.auditEntries()[0]
	if e.ActorID != nil || e.TargetID != nil || e.ActorUsername != "" {
		t.Errorf("entry without principal = %+v, want empty actor", e)
	}
	if e.Details != "" {
		t.Errorf("details = %q, want empty for nil details", e.Details)
	}
}

func TestAuditRecorder_TruncatesToColumns(t *testing.T) {
	store := newFakeStore()
	NewAuditRecorder(store).Record(context.Background(), AuditEvent{
		ActionType: ActionSentinelImport,
		Summary:    strings.Repeat("s", 400),
	})

	if got := len(store.auditEntries()[0].Summary); got != 255 {
		t.Errorf("summary length = %d, want 255", got)
	}
}

func TestAuditRecorder_NeverFails(t *testing.T) {
	skippedBefore := testutil.ToFloat64(metrics.AuditWritesTotal.WithLabelValues("skipped"))

	// nil store
	NewAuditRecorder(nil).Record(context.Background(), AuditEvent{ActionType: "x"})

	// nil recorder
	var nilRecorder *AuditRecorder
	nilRecorder.Record(context.Background(), AuditEvent{ActionType: "x"})

	// store not ready
	notReady := newFakeStore()
	notReady.auditErr = fmt.Errorf("insert audit: %w", ErrStoreNotReady)
	NewAuditRecorder(notReady).Record(context.Background(), AuditEvent{ActionType: "x"})

	if got := testutil.ToFloat64(metrics.AuditWritesTotal.WithLabelValues("skipped")); got != skippedBefore+3 {
		t.Errorf("skipped counter = %v, want %v", got, skippedBefore+3)
	}

	// unserializable details still write the entry
	store := newFakeStore()
	NewAuditRecorder(store).Record(context.Background(), AuditEvent{ActionType: "x", Details: make(chan int)})
	if n := len(store.auditEntries()); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}

	// a panicking store is contained
	NewAuditRecorder(panicStore{}).Record(context.Background(), AuditEvent{ActionType: "x"})
}

type panicStore struct{}

func (panicStore) InsertAuditLog(context.Context, AuditEntry) error { panic("boom") }

func (panicStore) QueryAuditLogs(context.Context, AuditFilter) ([]AuditEntry, int64, error) {
	return nil, 0, nil
}
