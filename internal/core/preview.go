package core

import (
	"context"
)

// Preview reasons.
const (
	ReasonMissingUsername  = "Missing username"
	ReasonPreviewDuplicate = "Duplicate in CSV"
)

// PreviewDuplicate is a row whose username already exists, either in the
// store (no reason) or earlier in the same file.
type PreviewDuplicate struct {
	RowNumber int    `json:"rowNumber"`
	Username  string `json:"username"`
	Reason    string `json:"reason,omitempty"`
}

// PreviewMissing is a row with no username.
type PreviewMissing struct {
	RowNumber int    `json:"rowNumber"`
	Reason    string `json:"reason"`
}

// PreviewResult reports what an import of the same file would do.
type PreviewResult struct {
	TotalRows       int                `json:"totalRows"`
	Duplicates      []PreviewDuplicate `json:"duplicates"`
	MissingUsername []PreviewMissing   `json:"missingUsername"`
	Insertable      int                `json:"insertable"`
}

// Planner classifies a CSV without writing anything.
type Planner struct {
	identities IdentitySource
}

// NewPlanner creates a Planner reading stored usernames from identities.
func NewPlanner(identities IdentitySource) *Planner {
	return &Planner{identities: identities}
}

// Preview parses data and classifies every row with the same rules Import
// uses. Each call loads a fresh identity set, so repeated previews of the
// same file return the same result.
func (p *Planner) Preview(ctx context.Context, data []byte) (*PreviewResult, error) {
	parsed, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}

	existing, err := LoadExisting(ctx, p.identities)
	if err != nil {
		return nil, err
	}

	headers := ResolveHeaders(parsed.Headers)
	batch := NewIdentitySet()

	result := &PreviewResult{
		TotalRows:       len(parsed.Rows),
		Duplicates:      make([]PreviewDuplicate, 0),
		MissingUsername: make([]PreviewMissing, 0),
	}

	for _, row := range parsed.Rows {
		username := headers.Username(row)

		switch CheckAndReserve(existing, batch, username) {
		case DecisionEmptyUsername:
			result.MissingUsername = append(result.MissingUsername, PreviewMissing{
				RowNumber: row.Number,
				Reason:    ReasonMissingUsername,
			})
		case DecisionDuplicateInStore:
			result.Duplicates = append(result.Duplicates, PreviewDuplicate{
				RowNumber: row.Number,
				Username:  username,
			})
		case DecisionDuplicateInBatch:
			result.Duplicates = append(result.Duplicates, PreviewDuplicate{
				RowNumber: row.Number,
				Username:  username,
				Reason:    ReasonPreviewDuplicate,
			})
		}
	}

	result.Insertable = result.TotalRows - len(result.Duplicates) - len(result.MissingUsername)
	return result, nil
}
