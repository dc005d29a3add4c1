package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AuditQuery is an audit log request as received from the client.
// Zero values mean "not set".
type AuditQuery struct {
	Action   string
	Actor    string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
	All      bool
}

// AuditPage is one page of audit entries, newest first.
type AuditPage struct {
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
	Logs     []AuditEntry `json:"logs"`
}

// normalize clamps paging: page is at least 1, pageSize falls back to the
// default and is capped, and All returns up to the all-cap from offset 0.
func (q AuditQuery) normalize(limits auditLimits) (page, pageSize, offset int) {
	if q.All {
		return 1, limits.maxAll, 0
	}

	page = max(q.Page, 1)
	pageSize = q.PageSize
	if pageSize <= 0 {
		pageSize = limits.defaultSize
	}
	pageSize = min(pageSize, limits.maxSize)
	return page, pageSize, (page - 1) * pageSize
}

type auditLimits struct {
	defaultSize int
	maxSize     int
	maxAll      int
}

// QueryAuditLogs returns audit entries matching q. The principal in ctx
// must carry a role.
func (s *Service) QueryAuditLogs(ctx context.Context, q AuditQuery) (*AuditPage, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(p.Role) == "" {
		return nil, ErrForbidden
	}

	page, pageSize, offset := q.normalize(auditLimits{
		defaultSize: s.audit.DefaultPageSize,
		maxSize:     s.audit.MaxPageSize,
		maxAll:      s.audit.MaxAll,
	})

	logs, total, err := s.store.QueryAuditLogs(ctx, AuditFilter{
		Action: strings.TrimSpace(q.Action),
		Actor:  strings.TrimSpace(q.Actor),
		From:   q.From,
		To:     q.To,
		Limit:  pageSize,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	if logs == nil {
		logs = make([]AuditEntry, 0)
	}

	return &AuditPage{Total: total, Page: page, PageSize: pageSize, Logs: logs}, nil
}
