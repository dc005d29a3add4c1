package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/SentinelAdmin/internal/logging"
	"github.com/JonMunkholm/SentinelAdmin/internal/metrics"
)

// Import failure reasons reported per row.
const (
	ReasonUsernameExists = "Username already exists"
	ReasonDuplicateInCSV = "Duplicate username in CSV"
	ReasonInsertFailed   = "DB insert error"
)

// OutcomeStatus is the classification of one imported row.
type OutcomeStatus string

const (
	StatusInserted         OutcomeStatus = "inserted"
	StatusDuplicateInStore OutcomeStatus = "duplicate_in_store"
	StatusDuplicateInBatch OutcomeStatus = "duplicate_in_batch"
	StatusMissingUsername  OutcomeStatus = "missing_username"
	StatusPersistenceError OutcomeStatus = "persistence_error"
)

// ImportOutcome is the ledger entry for one row.
type ImportOutcome struct {
	RowNumber int           `json:"rowNumber"`
	Status    OutcomeStatus `json:"status"`
	Detail    string        `json:"detail,omitempty"`
}

// FailedRow is a row that was not inserted, with the raw values as uploaded.
type FailedRow struct {
	RowNumber int               `json:"rowNumber"`
	Row       map[string]string `json:"row"`
	Reason    string            `json:"reason"`
	Status    OutcomeStatus     `json:"status"`
}

// ImportResult summarizes a confirmed import.
type ImportResult struct {
	ImportID          string          `json:"importId"`
	TotalRows         int             `json:"totalRows"`
	Success           int             `json:"success"`
	Failed            int             `json:"failed"`
	FailedRows        []FailedRow     `json:"failedRows"`
	InsertedUsernames []string        `json:"insertedUsernames"`
	Cancelled         bool            `json:"cancelled,omitempty"`
	Outcomes          []ImportOutcome `json:"-"`
}

func (r *ImportResult) fail(row ImportRow, status OutcomeStatus, reason string) {
	r.Failed++
	r.FailedRows = append(r.FailedRows, FailedRow{
		RowNumber: row.Number,
		Row:       row.Values,
		Reason:    reason,
		Status:    status,
	})
	r.Outcomes = append(r.Outcomes, ImportOutcome{RowNumber: row.Number, Status: status, Detail: reason})
	metrics.ImportRowsTotal.WithLabelValues(string(status)).Inc()
}

func (r *ImportResult) succeed(row ImportRow, username string) {
	r.Success++
	r.InsertedUsernames = append(r.InsertedUsernames, username)
	r.Outcomes = append(r.Outcomes, ImportOutcome{RowNumber: row.Number, Status: StatusInserted})
	metrics.ImportRowsTotal.WithLabelValues(string(StatusInserted)).Inc()
}

// Executor inserts CSV rows one at a time and records an audit entry per run.
type Executor struct {
	store    SentinelStore
	recorder *AuditRecorder
}

// NewExecutor creates an Executor writing to store and auditing through recorder.
func NewExecutor(store SentinelStore, recorder *AuditRecorder) *Executor {
	return &Executor{store: store, recorder: recorder}
}

// Import parses data and inserts every row that passes the collision checks,
// in file order. Row failures are reported in the result and never abort the
// run. A username is reserved before its insert; the reservation stands when
// the insert fails.
//
// Parse and identity-load failures return an error and nothing is audited.
// Once the loop starts every row is classified and an audit entry is always
// written. When ctx ends part way through, each row still due for insertion
// fails with the context error and the partial result is returned with
// Cancelled set.
func (e *Executor) Import(ctx context.Context, fileName string, data []byte) (*ImportResult, error) {
	parsed, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}

	existing, err := LoadExisting(ctx, e.store)
	if err != nil {
		return nil, err
	}

	importID := uuid.NewString()
	logger := logging.WithFields(ctx, "import_id", importID, "file", fileName)
	logger.Info("import started", "rows", len(parsed.Rows))
	start := time.Now()

	headers := ResolveHeaders(parsed.Headers)
	batch := NewIdentitySet()

	result := &ImportResult{
		ImportID:          importID,
		TotalRows:         len(parsed.Rows),
		FailedRows:        make([]FailedRow, 0),
		InsertedUsernames: make([]string, 0),
	}

	for _, row := range parsed.Rows {
		rec := headers.Normalize(row)

		switch CheckAndReserve(existing, batch, rec.Username) {
		case DecisionEmptyUsername:
			result.fail(row, StatusMissingUsername, ReasonMissingUsername)
			continue
		case DecisionDuplicateInStore:
			result.fail(row, StatusDuplicateInStore, ReasonUsernameExists)
			continue
		case DecisionDuplicateInBatch:
			result.fail(row, StatusDuplicateInBatch, ReasonDuplicateInCSV)
			continue
		}

		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			result.fail(row, StatusPersistenceError, err.Error())
			continue
		}

		if _, err := e.store.InsertSentinelUser(ctx, rec); err != nil {
			reason := err.Error()
			if reason == "" {
				reason = ReasonInsertFailed
			}
			if ctx.Err() != nil {
				result.Cancelled = true
			}
			logger.Warn("row insert failed", "row", row.Number, "username", rec.Username, "error", err)
			result.fail(row, StatusPersistenceError, reason)
			continue
		}

		existing.Add(rec.Username)
		result.succeed(row, rec.Username)
	}

	logger.Info("import finished",
		"success", result.Success,
		"failed", result.Failed,
		"cancelled", result.Cancelled,
		"duration", time.Since(start),
	)

	e.recordImport(ctx, fileName, result)
	return result, nil
}

func (e *Executor) recordImport(ctx context.Context, fileName string, result *ImportResult) {
	details := map[string]any{
		"importId": result.ImportID,
		"total":    result.TotalRows,
		"success":  result.Success,
		"failed":   result.Failed,
	}
	if fileName != "" {
		details["filename"] = fileName
	}
	if result.Cancelled {
		details["cancelled"] = true
	}

	e.recorder.Record(context.WithoutCancel(ctx), AuditEvent{
		ActionType: ActionSentinelImport,
		TargetType: TargetSentinelUser,
		Summary:    fmt.Sprintf("Imported %d rows", result.Success),
		Details:    details,
	})
}
