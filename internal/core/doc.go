// Package core provides the business logic of the Sentinel Admin panel.
//
// It is independent of HTTP and of the database driver: persistence is
// reached through the [Store] interface, which internal/database implements
// and tests replace with an in-memory fake.
//
// # Import Pipeline
//
// A CSV upload flows through four stages that preview and import share, so
// both classify every row the same way:
//
//  1. [ParseCSV] reads the header row and non-blank data rows.
//  2. [ResolveHeaders] maps header spellings to logical fields through the
//     alias table in [FieldSpecs]; [Sanitize] cleans and bounds each value.
//  3. [CheckAndReserve] classifies a username against the stored identities
//     ([LoadExisting]) and the names already reserved in the same file.
//  4. [Planner.Preview] only reports; [Executor.Import] inserts row by row,
//     keeps going after failures and writes one audit entry per run.
//
// # Audit Logging
//
// [AuditRecorder.Record] never returns an error. Actor fields default to the
// [Principal] placed in the context by the auth middleware; client IP and
// user agent come from [ContextWithIPAddress] and [ContextWithUserAgent].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages with support codes by
// [MapError].
package core
