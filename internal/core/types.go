package core

import (
	"context"
	"time"
)

// NormalizedRecord is one sentinel user after header resolution and sanitizing.
// Every field is trimmed and length-limited; absent values are empty strings.
type NormalizedRecord struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Dept      string `json:"dept"`
	Fullname  string `json:"fullname"`
	Setup     string `json:"setup"`
	SetupCode string `json:"setupcode"`
	ApptCode  string `json:"apptcode"`
	Remarks   string `json:"remarks"`
	IPAddress string `json:"ip_address"`
}

// SentinelUser is a stored sentinel user record.
type SentinelUser struct {
	ID int64 `json:"id"`
	NormalizedRecord
	CreatedAt time.Time `json:"created_at"`
}

// SentinelStats summarizes the sentinel user table.
type SentinelStats struct {
	TotalRecords      int64 `json:"totalRecords"`
	NewUsersLast7Days int64 `json:"newUsersLast7Days"`
}

// AdminUser is an operator account. The hash never leaves the service.
type AdminUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditEntry is one persisted audit log row.
type AuditEntry struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	ActorID       *int64    `json:"actor_id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	ActionType    string    `json:"action_type"`
	TargetType    string    `json:"target_type"`
	TargetID      *int64    `json:"target_id"`
	Summary       string    `json:"summary"`
	Details       string    `json:"details"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
}

// AuditFilter selects audit entries for QueryAuditLogs. Limit and Offset are
// already clamped by the service.
type AuditFilter struct {
	Action string
	Actor  string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// IdentitySource lists the usernames already persisted.
type IdentitySource interface {
	ListUsernames(ctx context.Context) ([]string, error)
}

// SentinelStore persists sentinel users.
//
// InsertSentinelUser returns the driver error unchanged so the import
// ledger can report it per row.
type SentinelStore interface {
	IdentitySource
	SentinelUsernameExists(ctx context.Context, username string) (bool, error)
	InsertSentinelUser(ctx context.Context, rec NormalizedRecord) (int64, error)
	GetSentinelUser(ctx context.Context, id int64) (*SentinelUser, error)
	ListSentinelUsers(ctx context.Context) ([]SentinelUser, error)
	SentinelStats(ctx context.Context, since time.Time) (SentinelStats, error)
	UpdateSentinelUser(ctx context.Context, id int64, rec NormalizedRecord) error
	DeleteSentinelUser(ctx context.Context, id int64) error
}

// AdminStore persists operator accounts.
type AdminStore interface {
	InsertAdminUser(ctx context.Context, username, passwordHash, role string) (*AdminUser, error)
	GetAdminUserByUsername(ctx context.Context, username string) (*AdminUser, error)
	ListAdminUsers(ctx context.Context) ([]AdminUser, error)
	CountAdminUsers(ctx context.Context) (int64, error)
}

// AuditStore persists and queries audit entries.
type AuditStore interface {
	InsertAuditLog(ctx context.Context, entry AuditEntry) error
	QueryAuditLogs(ctx context.Context, filter AuditFilter) ([]AuditEntry, int64, error)
}

// Store is everything the service needs from persistence.
type Store interface {
	SentinelStore
	AdminStore
	AuditStore
	Ready() bool
}
