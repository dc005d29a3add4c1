package core

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service. Handlers classify them with
// errors.Is and MapError turns them into user messages.
var (
	// ErrMissingFile is returned when a request carries no CSV upload.
	ErrMissingFile = errors.New("no file provided: CSV file is required")

	// ErrEmptyFile is returned when a CSV has a header but no data rows.
	ErrEmptyFile = errors.New("empty file: CSV contains no rows")

	// ErrInvalidFileType is returned for uploads that are not CSV.
	ErrInvalidFileType = errors.New("invalid file type: only CSV files are allowed")

	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrStoreNotReady is returned by the store before a database pool is attached.
	ErrStoreNotReady = errors.New("store not ready: database connection not initialized")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write would violate username uniqueness.
	ErrConflict = errors.New("username already exists")

	// ErrInvalidCredentials is returned by Login for unknown users or bad passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned when an operation needs a principal and has none.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the principal lacks a role.
	ErrForbidden = errors.New("access denied")
)

// CSVError reports a malformed CSV body. It maps to a 400 response.
type CSVError struct {
	Line int
	Err  error
}

func (e *CSVError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid csv at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *CSVError) Unwrap() error {
	return e.Err
}

// ValidationError represents a rejected request body. Message is a full
// sentence naming the field, e.g. "username is required".
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return "validation failed: " + e.Message
}
