package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

const auditColumns = `id, created_at, actor_id, COALESCE(actor_username, ''),
	COALESCE(actor_role, ''), action_type, COALESCE(target_type, ''), target_id,
	COALESCE(summary, ''), COALESCE(details, ''), COALESCE(ip_address, ''),
	COALESCE(user_agent, '')`

func scanAuditEntry(row pgx.Row) (core.AuditEntry, error) {
	var e core.AuditEntry
	err := row.Scan(
		&e.ID, &e.CreatedAt, &e.ActorID, &e.ActorUsername, &e.ActorRole,
		&e.ActionType, &e.TargetType, &e.TargetID, &e.Summary, &e.Details,
		&e.IPAddress, &e.UserAgent,
	)
	return e, err
}

// InsertAuditLog writes one entry. Empty optional fields are stored as NULL.
func (s *Store) InsertAuditLog(ctx context.Context, e core.AuditEntry) error {
	pool, err := s.conn()
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, actor_username, actor_role, action_type,
			target_type, target_id, summary, details, ip_address, user_agent)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''), $6,
			NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))`,
		e.ActorID, e.ActorUsername, e.ActorRole, e.ActionType,
		e.TargetType, e.TargetID, e.Summary, e.Details, e.IPAddress, e.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// QueryAuditLogs returns one page of entries newest first together with the
// number of entries matching f.
func (s *Store) QueryAuditLogs(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, int64, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, 0, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	wb := NewWhereBuilder()
	wb.Add("action_type", f.Action)
	wb.AddContains("actor_username", f.Actor)
	wb.AddTimestampRange("created_at", f.From, f.To)
	whereClause, args := wb.Build()

	var total int64
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := "SELECT " + auditColumns + " FROM audit_logs" + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", wb.NextArgIndex(), wb.NextArgIndex()+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]core.AuditEntry, 0)
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("query audit logs: %w", err)
	}
	return entries, total, nil
}
