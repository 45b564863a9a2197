package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/repository"
)

var (
	ErrChallengeNotFound = repository.ErrChallengeNotFound
	ErrInvalidChallenge  = errors.New("invalid challenge")
)

type ChallengeRepository interface {
	Create(ctx context.Context, challenge domain.Challenge) (domain.Challenge, error)
	FindByID(ctx context.Context, id uint) (domain.Challenge, error)
	FindAll(ctx context.Context) ([]domain.Challenge, error)
}

type ChallengeService struct {
	repo ChallengeRepository
}

func NewChallengeService(repo ChallengeRepository) *ChallengeService {
	return &ChallengeService{
		repo: repo,
	}
}

// CreateChallenge is restricted to identities allowed to manage challenges.
func (s *ChallengeService) CreateChallenge(ctx context.Context, creator domain.Identity, challenge domain.Challenge) (domain.Challenge, error) {
	if err := domain.Authorize(creator, domain.RoleTeacher, domain.RoleAdmin); err != nil {
		return domain.Challenge{}, err
	}
	if challenge.Points <= 0 {
		return domain.Challenge{}, fmt.Errorf("points must be positive: %w", ErrInvalidChallenge)
	}
	if challenge.Type != domain.ChallengeQuiz && challenge.Type != domain.ChallengeTask {
		return domain.Challenge{}, fmt.Errorf("unknown type %q: %w", challenge.Type, ErrInvalidChallenge)
	}
	challenge.CreatedBy = creator.UserID

	created, err := s.repo.Create(ctx, challenge)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id uint) (domain.Challenge, error) {
	challenge, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return challenge, nil
}

func (s *ChallengeService) ListChallenges(ctx context.Context) ([]domain.Challenge, error) {
	challenges, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return challenges, nil
}
