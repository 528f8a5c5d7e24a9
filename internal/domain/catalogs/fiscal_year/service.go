package fiscal_year

import (
	"context"
	"fmt"
	"time"

	"ledger/internal/core/apperror"
	"ledger/internal/core/id"
	"ledger/internal/domain"
	"ledger/pkg/logger"
)

// Service manages fiscal years.
type Service struct {
	repo Repository
	deps domain.Deps
}

// NewService creates the fiscal year service.
func NewService(repo Repository, deps domain.Deps) *Service {
	return &Service{repo: repo, deps: deps}
}

// Create adds a fiscal year, rejecting any overlap with an existing one.
func (s *Service) Create(ctx context.Context, fy *FiscalYear) error {
	if err := fy.Validate(); err != nil {
		return err
	}
	if id.IsNil(fy.ID) {
		fy.ID = id.New()
	}
	err := s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockTable(ctx); err != nil {
			return fmt.Errorf("lock fiscal years: %w", err)
		}
		overlapping, err := s.repo.FindOverlapping(ctx, fy.BeginTime, fy.EndTime)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return apperror.NewConstraintViolation("fiscal_year_overlap", "fiscal year overlaps an existing fiscal year").
				WithDetail("overlaps", overlapping[0].ID.String())
		}
		if err := s.repo.Create(ctx, fy); err != nil {
			return fmt.Errorf("create fiscal year: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "fiscal year created", "id", fy.ID, "begin", fy.BeginTime, "end", fy.EndTime)
	return nil
}

// Get returns one fiscal year.
func (s *Service) Get(ctx context.Context, fyID id.ID) (*FiscalYear, error) {
	return s.repo.Get(ctx, fyID)
}

// List returns every fiscal year in chronological order.
func (s *Service) List(ctx context.Context) ([]FiscalYear, error) {
	return s.repo.List(ctx)
}

// Containing returns the fiscal year covering t.
func (s *Service) Containing(ctx context.Context, t time.Time) (*FiscalYear, error) {
	return s.repo.Containing(ctx, t)
}

// Delete removes a fiscal year.
func (s *Service) Delete(ctx context.Context, fyID id.ID) error {
	return s.deps.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Get(ctx, fyID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, fyID)
	})
}
