package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

// InsertAdminUser stores an operator account. A taken username returns
// core.ErrConflict.
func (s *Store) InsertAdminUser(ctx context.Context, username, passwordHash, role string) (*core.AdminUser, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u := &core.AdminUser{Username: username, PasswordHash: passwordHash, Role: role}
	err = pool.QueryRow(ctx, `
		INSERT INTO admin_users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		username, passwordHash, role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("admin %q: %w", username, core.ErrConflict)
		}
		return nil, fmt.Errorf("insert admin user: %w", err)
	}
	return u, nil
}

// GetAdminUserByUsername returns the account with username or core.ErrNotFound.
func (s *Store) GetAdminUserByUsername(ctx context.Context, username string) (*core.AdminUser, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u := &core.AdminUser{}
	err = pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM admin_users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get admin user: %w", err)
	}
	return u, nil
}

// ListAdminUsers returns every account without password hashes.
func (s *Store) ListAdminUsers(ctx context.Context) ([]core.AdminUser, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := pool.Query(ctx, `
		SELECT id, username, role, created_at
		FROM admin_users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	defer rows.Close()

	users := make([]core.AdminUser, 0)
	for rows.Next() {
		var u core.AdminUser
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	return users, nil
}

// CountAdminUsers returns the number of operator accounts.
func (s *Store) CountAdminUsers(ctx context.Context) (int64, error) {
	pool, err := s.conn()
	if err != nil {
		return 0, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admin users: %w", err)
	}
	return n, nil
}
