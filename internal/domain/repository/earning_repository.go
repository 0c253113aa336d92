package repository

import (
	"context"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
)

type EarningRepository interface {
	ListByNanny(ctx context.Context, nannyUserID string) ([]entity.Earning, error)
}
