package repository

import (
	"context"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
)

type NannyRepository interface {
	Create(ctx context.Context, p *entity.NannyProfile) error
	GetByUserID(ctx context.Context, userID string) (*entity.NannyProfile, error)
	GetByID(ctx context.Context, id string) (*entity.NannyProfile, error)
	Search(ctx context.Context, q NannySearch) ([]entity.NannyProfile, int, error)
	Update(ctx context.Context, userID string, u entity.ProfileUpdate) (*entity.NannyProfile, error)
	UpsertAvailability(ctx context.Context, profileID string, slots []entity.AvailabilitySlot) error
}
