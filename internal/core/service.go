package core

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/SentinelAdmin/internal/auth"
	"github.com/JonMunkholm/SentinelAdmin/internal/config"
	"github.com/JonMunkholm/SentinelAdmin/internal/metrics"
)

// Service provides the business logic of the admin panel: the CSV import
// pipeline, sentinel and admin user management and the audit log.
type Service struct {
	store    Store
	recorder *AuditRecorder
	planner  *Planner
	executor *Executor
	limiter  *ImportLimiter
	tokens   *auth.Issuer
	validate *validator.Validate
	audit    config.AuditConfig
	now      func() time.Time
}

// NewService creates a Service over store. The store may not be connected
// yet; operations then fail with ErrStoreNotReady until it is.
func NewService(store Store, cfg *config.Config) (*Service, error) {
	if store == nil {
		return nil, errors.New("core: store is required")
	}
	if cfg == nil {
		return nil, errors.New("core: config is required")
	}

	recorder := NewAuditRecorder(store)
	return &Service{
		store:    store,
		recorder: recorder,
		planner:  NewPlanner(store),
		executor: NewExecutor(store, recorder),
		limiter:  NewImportLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		tokens:   auth.NewIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL),
		validate: newValidator(),
		audit:    cfg.Audit,
		now:      time.Now,
	}, nil
}

// Ready reports whether the store has a database connection.
func (s *Service) Ready() bool {
	return s.store.Ready()
}

// Limiter exposes the import limiter for health reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Tokens returns the issuer used to verify bearer tokens.
func (s *Service) Tokens() *auth.Issuer {
	return s.tokens
}

// PreviewImport classifies the rows of a CSV without writing anything.
func (s *Service) PreviewImport(ctx context.Context, data []byte) (*PreviewResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	result, err := s.planner.Preview(ctx, data)
	observeRun("preview", start, runStatus(err))
	return result, err
}

// ImportRecords inserts the rows of a CSV and records one audit entry.
func (s *Service) ImportRecords(ctx context.Context, fileName string, data []byte) (*ImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	result, err := s.executor.Import(ctx, fileName, data)
	status := runStatus(err)
	if err == nil && result.Cancelled {
		status = "cancelled"
	}
	observeRun("import", start, status)
	return result, err
}

func runStatus(err error) string {
	if err != nil {
		return "rejected"
	}
	return "ok"
}

func observeRun(mode string, start time.Time, status string) {
	metrics.ImportsTotal.WithLabelValues(mode, status).Inc()
	metrics.ImportDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
