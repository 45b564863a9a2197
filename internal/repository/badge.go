package repository

import (
	"context"
	"fmt"

	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/repository/dao"
)

type BadgeDAO interface {
	FindByUserID(ctx context.Context, userID uint) ([]dao.Badge, error)
}

type BadgeRepository struct {
	dao BadgeDAO
}

func NewBadgeRepository(dao BadgeDAO) *BadgeRepository {
	return &BadgeRepository{
		dao: dao,
	}
}

func (r *BadgeRepository) FindByUserID(ctx context.Context, userID uint) ([]domain.Badge, error) {
	found, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	return badgesDaoToDomain(found), nil
}

func badgesDaoToDomain(badges []dao.Badge) []domain.Badge {
	out := make([]domain.Badge, 0, len(badges))
	for _, b := range badges {
		out = append(out, domain.Badge{
			ID:       b.ID,
			UserID:   b.UserID,
			Name:     b.Name,
			EarnedAt: b.EarnedAt,
		})
	}

	return out
}
