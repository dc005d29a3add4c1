package core

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/SentinelAdmin/internal/config"
)

// fakeStore is an in-memory Store. Inserts of usernames in failInsert return
// insertErr; auditErr makes every audit insert fail. afterInsert, when set,
// runs after each successful insert with the number inserted so far.
type fakeStore struct {
	mu sync.Mutex

	nextID    int64
	sentinels []SentinelUser
	admins    []AdminUser
	audits    []AuditEntry

	listCalls  int
	inserted   []NormalizedRecord
	failInsert map[string]bool
	insertErr  error
	auditErr   error
	notReady   bool

	afterInsert func(n int)
}

func newFakeStore(usernames ...string) *fakeStore {
	fs := &fakeStore{failInsert: make(map[string]bool)}
	for _, u := range usernames {
		fs.nextID++
		fs.sentinels = append(fs.sentinels, SentinelUser{
			ID:               fs.nextID,
			NormalizedRecord: NormalizedRecord{Username: u},
			CreatedAt:        time.Now().Add(-30 * 24 * time.Hour),
		})
	}
	return fs
}

func (f *fakeStore) Ready() bool { return !f.notReady }

func (f *fakeStore) ListUsernames(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notReady {
		return nil, ErrStoreNotReady
	}
	f.listCalls++
	names := make([]string, 0, len(f.sentinels))
	for _, s := range f.sentinels {
		names = append(names, s.Username)
	}
	return names, nil
}

func (f *fakeStore) SentinelUsernameExists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notReady {
		return false, ErrStoreNotReady
	}
	for _, s := range f.sentinels {
		if strings.EqualFold(s.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertSentinelUser(_ context.Context, rec NormalizedRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.afterInsert != nil {
		defer func() { f.afterInsert(len(f.inserted)) }()
	}
	if f.failInsert[rec.Username] {
		return 0, f.insertErr
	}
	for _, s := range f.sentinels {
		if strings.EqualFold(s.Username, rec.Username) {
			return 0, errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)")
		}
	}
	f.nextID++
	f.sentinels = append(f.sentinels, SentinelUser{ID: f.nextID, NormalizedRecord: rec, CreatedAt: time.Now()})
	f.inserted = append(f.inserted, rec)
	return f.nextID, nil
}

func (f *fakeStore) GetSentinelUser(_ context.Context, id int64) (*SentinelUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sentinels {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ListSentinelUsers(_ context.Context) ([]SentinelUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]SentinelUser(nil), f.sentinels...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) SentinelStats(_ context.Context, since time.Time) (SentinelStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := SentinelStats{TotalRecords: int64(len(f.sentinels))}
	for _, s := range f.sentinels {
		if !s.CreatedAt.Before(since) {
			stats.NewUsersLast7Days++
		}
	}
	return stats, nil
}

func (f *fakeStore) UpdateSentinelUser(_ context.Context, id int64, rec NormalizedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.sentinels {
		if s.ID == id {
			f.sentinels[i].NormalizedRecord = rec
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) DeleteSentinelUser(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.sentinels {
		if s.ID == id {
			f.sentinels = append(f.sentinels[:i], f.sentinels[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) InsertAdminUser(_ context.Context, username, hash, role string) (*AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if strings.EqualFold(a.Username, username) {
			return nil, ErrConflict
		}
	}
	f.nextID++
	u := AdminUser{ID: f.nextID, Username: username, PasswordHash: hash, Role: role, CreatedAt: time.Now()}
	f.admins = append(f.admins, u)
	return &u, nil
}

func (f *fakeStore) GetAdminUserByUsername(_ context.Context, username string) (*AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Username == username {
			out := a
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ListAdminUsers(_ context.Context) ([]AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AdminUser(nil), f.admins...), nil
}

func (f *fakeStore) CountAdminUsers(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.admins)), nil
}

func (f *fakeStore) InsertAuditLog(_ context.Context, entry AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return f.auditErr
	}
	f.nextID++
	entry.ID = f.nextID
	entry.CreatedAt = time.Now()
	f.audits = append(f.audits, entry)
	return nil
}

func (f *fakeStore) QueryAuditLogs(_ context.Context, filter AuditFilter) ([]AuditEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []AuditEntry
	for i := len(f.audits) - 1; i >= 0; i-- {
		e := f.audits[i]
		if filter.Action != "" && e.ActionType != filter.Action {
			continue
		}
		if filter.Actor != "" && !strings.Contains(strings.ToLower(e.ActorUsername), strings.ToLower(filter.Actor)) {
			continue
		}
		matched = append(matched, e)
	}
	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeStore) auditEntries() []AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AuditEntry(nil), f.audits...)
}

func testConfig() *config.Config {
	return &config.Config{
		Upload:   config.UploadConfig{MaxConcurrent: 2, MaxWaitTime: time.Second},
		Security: config.SecurityConfig{JWTSecret: "test-secret-0123456789", TokenTTL: time.Hour},
		Audit:    config.AuditConfig{DefaultPageSize: 25, MaxPageSize: 200, MaxAll: 5000},
	}
}

func newTestService(t *testing.T, store *fakeStore) *Service {
	t.Helper()
	svc, err := NewService(store, testConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}
