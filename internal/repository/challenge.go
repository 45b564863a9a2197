package repository

import (
	"context"
	"fmt"

	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/repository/dao"
)

var ErrChallengeNotFound = dao.ErrChallengeNotFound

type ChallengeDAO interface {
	Insert(ctx context.Context, challenge dao.Challenge) (dao.Challenge, error)
	FindByID(ctx context.Context, id uint) (dao.Challenge, error)
	FindAll(ctx context.Context) ([]dao.Challenge, error)
}

type ChallengeRepository struct {
	dao ChallengeDAO
}

func NewChallengeRepository(dao ChallengeDAO) *ChallengeRepository {
	return &ChallengeRepository{
		dao: dao,
	}
}

func (r *ChallengeRepository) Create(ctx context.Context, challenge domain.Challenge) (domain.Challenge, error) {
	created, err := r.dao.Insert(ctx, dao.Challenge{
		Title:       challenge.Title,
		Description: challenge.Description,
		Type:        string(challenge.Type),
		Points:      challenge.Points,
		CreatedBy:   challenge.CreatedBy,
	})
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return challengeDaoToDomain(created), nil
}

func (r *ChallengeRepository) FindByID(ctx context.Context, id uint) (domain.Challenge, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return challengeDaoToDomain(found), nil
}

func (r *ChallengeRepository) FindAll(ctx context.Context) ([]domain.Challenge, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	challenges := make([]domain.Challenge, 0, len(found))
	for _, c := range found {
		challenges = append(challenges, challengeDaoToDomain(c))
	}

	return challenges, nil
}

func challengeDaoToDomain(c dao.Challenge) domain.Challenge {
	return domain.Challenge{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Type:        domain.ChallengeType(c.Type),
		Points:      c.Points,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
	}
}
