package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

const sentinelColumns = `id, username, password, dept, fullname, setup, setupcode,
	apptcode, remarks, ip_address, created_at`

func scanSentinelUser(row pgx.Row) (*core.SentinelUser, error) {
	u := &core.SentinelUser{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Password, &u.Dept, &u.Fullname, &u.Setup,
		&u.SetupCode, &u.ApptCode, &u.Remarks, &u.IPAddress, &u.CreatedAt,
	)
	return u, err
}

// isUniqueViolation reports a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// ListUsernames returns every stored username.
func (s *Store) ListUsernames(ctx context.Context) ([]string, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := pool.Query(ctx, `SELECT username FROM sentinel_users`)
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	return names, nil
}

// InsertSentinelUser inserts rec and returns its id. Driver errors are
// returned unwrapped.
func (s *Store) InsertSentinelUser(ctx context.Context, rec core.NormalizedRecord) (int64, error) {
	pool, err := s.conn()
	if err != nil {
		return 0, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var id int64
	err = pool.QueryRow(ctx, `
		INSERT INTO sentinel_users (username, password, dept, fullname, setup,
			setupcode, apptcode, remarks, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		rec.Username, rec.Password, rec.Dept, rec.Fullname, rec.Setup,
		rec.SetupCode, rec.ApptCode, rec.Remarks, rec.IPAddress,
	).Scan(&id)
	return id, err
}

// SentinelUsernameExists reports whether username is taken, ignoring case.
// The lookup is served by the lower(username) unique index.
func (s *Store) SentinelUsernameExists(ctx context.Context, username string) (bool, error) {
	pool, err := s.conn()
	if err != nil {
		return false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var exists bool
	err = pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sentinel_users WHERE lower(username) = lower($1))`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sentinel username: %w", err)
	}
	return exists, nil
}

// GetSentinelUser returns the record with id or core.ErrNotFound.
func (s *Store) GetSentinelUser(ctx context.Context, id int64) (*core.SentinelUser, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := scanSentinelUser(pool.QueryRow(ctx,
		`SELECT `+sentinelColumns+` FROM sentinel_users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get sentinel user: %w", err)
	}
	return u, nil
}

// ListSentinelUsers returns all records newest first.
func (s *Store) ListSentinelUsers(ctx context.Context) ([]core.SentinelUser, error) {
	pool, err := s.conn()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := pool.Query(ctx,
		`SELECT `+sentinelColumns+` FROM sentinel_users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sentinel users: %w", err)
	}
	defer rows.Close()

	users := make([]core.SentinelUser, 0)
	for rows.Next() {
		u, err := scanSentinelUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sentinel user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sentinel users: %w", err)
	}
	return users, nil
}

// SentinelStats counts all records and those created at or after since.
func (s *Store) SentinelStats(ctx context.Context, since time.Time) (core.SentinelStats, error) {
	var stats core.SentinelStats

	pool, err := s.conn()
	if err != nil {
		return stats, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at >= $1)
		FROM sentinel_users`, since,
	).Scan(&stats.TotalRecords, &stats.NewUsersLast7Days)
	if err != nil {
		return stats, fmt.Errorf("sentinel stats: %w", err)
	}
	return stats, nil
}

// UpdateSentinelUser overwrites every column of the record with id.
func (s *Store) UpdateSentinelUser(ctx context.Context, id int64, rec core.NormalizedRecord) error {
	pool, err := s.conn()
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := pool.Exec(ctx, `
		UPDATE sentinel_users
		SET username = $2, password = $3, dept = $4, fullname = $5, setup = $6,
			setupcode = $7, apptcode = $8, remarks = $9, ip_address = $10
		WHERE id = $1`,
		id, rec.Username, rec.Password, rec.Dept, rec.Fullname, rec.Setup,
		rec.SetupCode, rec.ApptCode, rec.Remarks, rec.IPAddress,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update %q: %w", rec.Username, core.ErrConflict)
		}
		return fmt.Errorf("update sentinel user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteSentinelUser removes the record with id.
func (s *Store) DeleteSentinelUser(ctx context.Context, id int64) error {
	pool, err := s.conn()
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := pool.Exec(ctx, `DELETE FROM sentinel_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sentinel user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
