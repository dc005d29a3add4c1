package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/SentinelAdmin/internal/auth"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "wrapped conflict",
			err:         fmt.Errorf("create %q: %w", "alice", ErrConflict),
			wantCode:    "DB001",
			wantMessage: "Username already exists",
		},
		{
			name:        "driver duplicate key",
			err:         errors.New("ERROR: duplicate key value violates unique constraint \"sentinel_users_username_lower_idx\" (SQLSTATE 23505)"),
			wantCode:    "DB001",
			wantMessage: "Username already exists",
		},
		{
			name:        "store not ready",
			err:         fmt.Errorf("list: %w", ErrStoreNotReady),
			wantCode:    "DB008",
			wantMessage: "Database is not connected yet",
		},
		{
			name:        "empty file",
			err:         ErrEmptyFile,
			wantCode:    "FILE005",
			wantMessage: "CSV contains no rows",
		},
		{
			name:        "missing file",
			err:         ErrMissingFile,
			wantCode:    "FILE004",
			wantMessage: "CSV file is required",
		},
		{
			name:        "csv parse error",
			err:         &CSVError{Line: 3, Err: errors.New("bare quote")},
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "validation error carries field message",
			err:         ValidationError{Field: "username", Message: "username is required"},
			wantCode:    "VAL001",
			wantMessage: "username is required",
		},
		{
			name:        "expired token",
			err:         auth.ErrTokenExpired,
			wantCode:    "AUTH002",
			wantMessage: "Session expired",
		},
		{
			name:        "busy limiter",
			err:         ErrTooManyUploads,
			wantCode:    "UPL001",
			wantMessage: "System is busy processing other imports",
		},
		{
			name:        "connection refused",
			err:         errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "value too long",
			err:         errors.New("ERROR: value too long for type character varying(50)"),
			wantCode:    "VAL002",
			wantMessage: "A value is longer than allowed",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("RATE LIMIT exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrEmptyFile)

	expected := "CSV contains no rows (Code: FILE005). Please upload a CSV file with data rows"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrNotFound, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
