package core

// # Error Codes Reference
//
// User-facing errors carry a code that operators can quote to support.
// Known sentinel errors are matched with errors.Is first; driver and
// transport errors fall back to case-insensitive substring patterns.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate username: the username already exists
//	DB002 - Unique constraint: a value must be unique
//	DB003 - Not found: the record does not exist
//	DB004 - Connection refused: unable to connect to database
//	DB005 - Connection reset: database connection was interrupted
//	DB006 - Timeout: operation timed out
//	DB007 - Deadlock: database was busy
//	DB008 - Not ready: the database connection is not established yet
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid request: a field failed validation
//	VAL002 - Value too long: a value exceeds its column size
//	VAL003 - Invalid value: a value has the wrong format
//	VAL004 - Missing value: a required column is null
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds the size limit
//	FILE002 - Invalid CSV: the file could not be parsed
//	FILE003 - Encoding error: the file contains invalid characters
//	FILE004 - No file: no file was attached
//	FILE005 - Empty file: the CSV has no data rows
//	FILE006 - Wrong type: the file is not a CSV
//
// # Auth Errors (AUTH001-AUTH099)
//
//	AUTH001 - Authentication required
//	AUTH002 - Token expired
//	AUTH003 - Invalid token
//	AUTH004 - Invalid credentials
//	AUTH005 - Access denied
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - System busy: too many imports in progress
//	UPL002 - Request cancelled
//	UPL003 - Request timeout
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// ERR000 is returned when nothing matches; check the application log for the
// technical error, which is logged with the request id.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/SentinelAdmin/internal/auth"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// knownErrors maps sentinel errors to messages. Checked in order with errors.Is.
var knownErrors = []struct {
	target error
	msg    UserMessage
}{
	{ErrConflict, UserMessage{"Username already exists", "Choose a different username", "DB001"}},
	{ErrNotFound, UserMessage{"Record not found", "Refresh the list and try again", "DB003"}},
	{ErrStoreNotReady, UserMessage{"Database is not connected yet", "Please try again in a few moments", "DB008"}},
	{ErrFileTooLarge, UserMessage{"File exceeds maximum size limit (10MB)", "Split the file into smaller files", "FILE001"}},
	{ErrMissingFile, UserMessage{"CSV file is required", "Please select a CSV file to upload", "FILE004"}},
	{ErrEmptyFile, UserMessage{"CSV contains no rows", "Please upload a CSV file with data rows", "FILE005"}},
	{ErrInvalidFileType, UserMessage{"Only CSV files are allowed", "Save the file as .csv and upload it again", "FILE006"}},
	{ErrUnauthenticated, UserMessage{"Authentication required", "Please log in", "AUTH001"}},
	{auth.ErrTokenExpired, UserMessage{"Session expired", "Please log in again", "AUTH002"}},
	{auth.ErrTokenInvalid, UserMessage{"Invalid session token", "Please log in again", "AUTH003"}},
	{ErrInvalidCredentials, UserMessage{"Invalid username or password", "Check your credentials and try again", "AUTH004"}},
	{ErrForbidden, UserMessage{"Access denied", "Ask an administrator for a role", "AUTH005"}},
	{ErrTooManyUploads, UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "UPL001"}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{"Username already exists", "Choose a different username", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review your data for duplicate values", "DB002"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL002"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "UPL003"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
	{"value too long", UserMessage{"A value is longer than allowed", "Shorten the value and try again", "VAL002"}},
	{"invalid input syntax", UserMessage{"A value has the wrong format", "Check the value and try again", "VAL003"}},
	{"violates not-null", UserMessage{"A required value is missing", "Fill in all required fields", "VAL004"}},
	{"request body too large", UserMessage{"File exceeds maximum size limit (10MB)", "Split the file into smaller files", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Ensure the file is comma-separated with a header row", "FILE002"}},
	{"encoding error", UserMessage{"File contains invalid characters", "Save file as UTF-8 encoding", "FILE003"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(fmt.Errorf("create: %w", ErrConflict))
//	// msg.Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve ValidationError
	if errors.As(err, &ve) {
		return UserMessage{Message: ve.Message, Action: "Correct the field and try again", Code: "VAL001"}
	}
	var ce *CSVError
	if errors.As(err, &ce) {
		return UserMessage{Message: "File is not a valid CSV", Action: "Ensure the file is comma-separated with a header row", Code: "FILE002"}
	}

	for _, ke := range knownErrors {
		if errors.Is(err, ke.target) {
			return ke.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
