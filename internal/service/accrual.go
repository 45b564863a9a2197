package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/repository"
)

var ErrAlreadySubmitted = repository.ErrSubmissionExists

type SubmissionRepository interface {
	Accrue(ctx context.Context, userID, challengeID uint, proof string, policy domain.BadgePolicy) (domain.SubmissionResult, error)
}

// SubmissionObserver is notified after a submission has been committed.
type SubmissionObserver interface {
	SubmissionAccepted(ctx context.Context, result domain.SubmissionResult)
}

type AccrualService struct {
	repo      SubmissionRepository
	policy    domain.BadgePolicy
	observers []SubmissionObserver
}

func NewAccrualService(repo SubmissionRepository, policy domain.BadgePolicy, observers ...SubmissionObserver) *AccrualService {
	return &AccrualService{
		repo:      repo,
		policy:    policy,
		observers: observers,
	}
}

// Submit records the user's proof for a challenge, adds the reward and awards
// every badge threshold the reward crossed. Observers run in registration
// order, only after the transaction committed.
func (s *AccrualService) Submit(ctx context.Context, userID, challengeID uint, proof string) (domain.SubmissionResult, error) {
	result, err := s.repo.Accrue(ctx, userID, challengeID, proof, s.policy)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("s.repo.Accrue -> %w", err)
	}

	if len(result.Badges) > 0 {
		names := make([]string, 0, len(result.Badges))
		for _, b := range result.Badges {
			names = append(names, b.Name)
		}
		zap.L().Info("badges awarded", zap.Uint("user_id", userID), zap.Strings("badges", names), zap.Int("points", result.Points))
	}

	for _, o := range s.observers {
		o.SubmissionAccepted(ctx, result)
	}

	return result, nil
}
