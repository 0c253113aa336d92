package application

import (
	"context"

	"github.com/oksasatya/supernanny-backend/internal/domain/apperror"
	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	repo "github.com/oksasatya/supernanny-backend/internal/domain/repository"
)

type EarningService struct {
	Earnings repo.EarningRepository
}

func NewEarningService(earnings repo.EarningRepository) *EarningService {
	return &EarningService{Earnings: earnings}
}

type EarningsReport struct {
	Earnings []entity.Earning       `json:"earnings"`
	Summary  entity.EarningsSummary `json:"summary"`
}

// Report lists the nanny's earnings newest first with their totals.
func (s *EarningService) Report(ctx context.Context, nannyUserID string) (*EarningsReport, error) {
	items, err := s.Earnings.ListByNanny(ctx, nannyUserID)
	if err != nil {
		return nil, apperror.Internal("failed to list earnings", err)
	}
	if items == nil {
		items = []entity.Earning{}
	}
	return &EarningsReport{Earnings: items, Summary: entity.Summarize(items)}, nil
}
