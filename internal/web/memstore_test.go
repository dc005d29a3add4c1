package web

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/SentinelAdmin/internal/config"
	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

// memStore is an in-memory core.Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	notReady bool
	nextID   int64
	users    map[int64]core.SentinelUser
	admins   []core.AdminUser
	audit    []core.AuditEntry
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]core.SentinelUser)}
}

func (m *memStore) Ready() bool { return !m.notReady }

func (m *memStore) ListUsernames(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notReady {
		return nil, core.ErrStoreNotReady
	}
	names := make([]string, 0, len(m.users))
	for _, u := range m.users {
		names = append(names, u.Username)
	}
	return names, nil
}

func (m *memStore) SentinelUsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notReady {
		return false, core.ErrStoreNotReady
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertSentinelUser(_ context.Context, rec core.NormalizedRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.users[m.nextID] = core.SentinelUser{ID: m.nextID, NormalizedRecord: rec, CreatedAt: time.Now()}
	return m.nextID, nil
}

func (m *memStore) GetSentinelUser(_ context.Context, id int64) (*core.SentinelUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) ListSentinelUsers(context.Context) ([]core.SentinelUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.SentinelUser, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) SentinelStats(_ context.Context, since time.Time) (core.SentinelStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := core.SentinelStats{TotalRecords: int64(len(m.users))}
	for _, u := range m.users {
		if !u.CreatedAt.Before(since) {
			stats.NewUsersLast7Days++
		}
	}
	return stats, nil
}

func (m *memStore) UpdateSentinelUser(_ context.Context, id int64, rec core.NormalizedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.NormalizedRecord = rec
	m.users[id] = u
	return nil
}

func (m *memStore) DeleteSentinelUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) InsertAdminUser(_ context.Context, username, hash, role string) (*core.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notReady {
		return nil, core.ErrStoreNotReady
	}
	for _, a := range m.admins {
		if a.Username == username {
			return nil, core.ErrConflict
		}
	}
	u := core.AdminUser{ID: int64(len(m.admins) + 1), Username: username, PasswordHash: hash, Role: role, CreatedAt: time.Now()}
	m.admins = append(m.admins, u)
	return &u, nil
}

func (m *memStore) GetAdminUserByUsername(_ context.Context, username string) (*core.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memStore) ListAdminUsers(context.Context) ([]core.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.AdminUser, len(m.admins))
	for i, a := range m.admins {
		a.PasswordHash = ""
		out[i] = a
	}
	return out, nil
}

func (m *memStore) CountAdminUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notReady {
		return 0, core.ErrStoreNotReady
	}
	return int64(len(m.admins)), nil
}

func (m *memStore) InsertAuditLog(_ context.Context, e core.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notReady {
		return core.ErrStoreNotReady
	}
	e.ID = int64(len(m.audit) + 1)
	e.CreatedAt = time.Now()
	m.audit = append(m.audit, e)
	return nil
}

func (m *memStore) QueryAuditLogs(_ context.Context, f core.AuditFilter) ([]core.AuditEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []core.AuditEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		e := m.audit[i]
		if f.Action != "" && e.ActionType != f.Action {
			continue
		}
		if f.Actor != "" && !strings.Contains(strings.ToLower(e.ActorUsername), strings.ToLower(f.Actor)) {
			continue
		}
		matched = append(matched, e)
	}
	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []core.AuditEntry{}, total, nil
	}
	matched = matched[f.Offset:]
	if len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (m *memStore) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.audit))
	for i, e := range m.audit {
		out[i] = e.ActionType
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 5 * time.Second},
		Upload:   config.UploadConfig{MaxFileSize: 4096, MaxConcurrent: 2, MaxWaitTime: time.Second},
		Security: config.SecurityConfig{JWTSecret: "web-test-secret", TokenTTL: time.Hour},
		Audit:    config.AuditConfig{DefaultPageSize: 25, MaxPageSize: 200, MaxAll: 5000},
	}
}

func newTestServer(t *testing.T, store *memStore) *Server {
	t.Helper()
	svc, err := core.NewService(store, testConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewServer(svc, testConfig())
}
