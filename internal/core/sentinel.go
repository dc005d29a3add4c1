package core

import (
	"context"
	"fmt"
	"time"
)

// newUsersWindow is the look-back for SentinelStats.NewUsersLast7Days.
const newUsersWindow = 7 * 24 * time.Hour

// SentinelInput is the JSON body of a single-record create or update.
type SentinelInput struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password"`
	Dept      string `json:"dept" validate:"required"`
	Fullname  string `json:"fullname" validate:"required"`
	Setup     string `json:"setup"`
	SetupCode string `json:"setupcode"`
	ApptCode  string `json:"apptcode"`
	Remarks   string `json:"remarks"`
	IPAddress string `json:"ip_address" validate:"omitempty,ip"`
}

func (in SentinelInput) record() NormalizedRecord {
	return SanitizeRecord(NormalizedRecord{
		Username:  in.Username,
		Password:  in.Password,
		Dept:      in.Dept,
		Fullname:  in.Fullname,
		Setup:     in.Setup,
		SetupCode: in.SetupCode,
		ApptCode:  in.ApptCode,
		Remarks:   in.Remarks,
		IPAddress: in.IPAddress,
	})
}

// sanitized returns in with every field sanitized so validation sees the
// values that will be stored.
func (in SentinelInput) sanitized() SentinelInput {
	rec := in.record()
	return SentinelInput{
		Username:  rec.Username,
		Password:  rec.Password,
		Dept:      rec.Dept,
		Fullname:  rec.Fullname,
		Setup:     rec.Setup,
		SetupCode: rec.SetupCode,
		ApptCode:  rec.ApptCode,
		Remarks:   rec.Remarks,
		IPAddress: rec.IPAddress,
	}
}

// SentinelList is the response of ListSentinelUsers.
type SentinelList struct {
	Records []SentinelUser `json:"records"`
	SentinelStats
}

// CreateSentinelUser inserts one record. A username that already exists,
// ignoring case, returns ErrConflict.
func (s *Service) CreateSentinelUser(ctx context.Context, in SentinelInput) (*SentinelUser, error) {
	in = in.sanitized()
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	rec := in.record()

	exists, err := s.store.SentinelUsernameExists(ctx, rec.Username)
	if err != nil {
		return nil, fmt.Errorf("check username %q: %w", rec.Username, err)
	}
	if exists {
		return nil, fmt.Errorf("create %q: %w", rec.Username, ErrConflict)
	}

	id, err := s.store.InsertSentinelUser(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("insert sentinel user: %w", err)
	}

	s.recorder.Record(ctx, AuditEvent{
		ActionType: ActionSentinelCreate,
		TargetType: TargetSentinelUser,
		TargetID:   id,
		Summary:    "Created sentinel user " + rec.Username,
		Details:    auditView(rec),
	})

	return &SentinelUser{ID: id, NormalizedRecord: rec, CreatedAt: s.now()}, nil
}

// ListSentinelUsers returns every record newest first with table stats.
func (s *Service) ListSentinelUsers(ctx context.Context) (*SentinelList, error) {
	records, err := s.store.ListSentinelUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sentinel users: %w", err)
	}
	stats, err := s.store.SentinelStats(ctx, s.now().Add(-newUsersWindow))
	if err != nil {
		return nil, fmt.Errorf("sentinel stats: %w", err)
	}
	if records == nil {
		records = make([]SentinelUser, 0)
	}
	return &SentinelList{Records: records, SentinelStats: stats}, nil
}

// UpdateSentinelUser replaces the record with id. An empty password keeps
// the stored one.
func (s *Service) UpdateSentinelUser(ctx context.Context, id int64, in SentinelInput) (*SentinelUser, error) {
	in = in.sanitized()
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	rec := in.record()

	before, err := s.store.GetSentinelUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sentinel user %d: %w", id, err)
	}

	passwordChanged := rec.Password != ""
	if !passwordChanged {
		rec.Password = before.Password
	}

	if err := s.store.UpdateSentinelUser(ctx, id, rec); err != nil {
		return nil, fmt.Errorf("update sentinel user %d: %w", id, err)
	}

	s.recorder.Record(ctx, AuditEvent{
		ActionType: ActionSentinelUpdate,
		TargetType: TargetSentinelUser,
		TargetID:   id,
		Summary:    "Updated sentinel user " + rec.Username,
		Details: map[string]any{
			"before":          auditView(before.NormalizedRecord),
			"after":           auditView(rec),
			"passwordChanged": passwordChanged,
		},
	})

	return &SentinelUser{ID: id, NormalizedRecord: rec, CreatedAt: before.CreatedAt}, nil
}

// DeleteSentinelUser removes the record with id.
func (s *Service) DeleteSentinelUser(ctx context.Context, id int64) error {
	before, err := s.store.GetSentinelUser(ctx, id)
	if err != nil {
		return fmt.Errorf("get sentinel user %d: %w", id, err)
	}
	if err := s.store.DeleteSentinelUser(ctx, id); err != nil {
		return fmt.Errorf("delete sentinel user %d: %w", id, err)
	}

	s.recorder.Record(ctx, AuditEvent{
		ActionType: ActionSentinelDelete,
		TargetType: TargetSentinelUser,
		TargetID:   id,
		Summary:    "Deleted sentinel user " + before.Username,
		Details:    map[string]any{"username": before.Username},
	})
	return nil
}

// auditView is the record as written to audit details. The password is
// never included.
func auditView(rec NormalizedRecord) map[string]string {
	return map[string]string{
		"username":   rec.Username,
		"dept":       rec.Dept,
		"fullname":   rec.Fullname,
		"setup":      rec.Setup,
		"setupcode":  rec.SetupCode,
		"apptcode":   rec.ApptCode,
		"remarks":    rec.Remarks,
		"ip_address": rec.IPAddress,
	}
}
