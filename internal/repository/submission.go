package repository

import (
	"context"
	"fmt"

	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/repository/dao"
)

var ErrSubmissionExists = dao.ErrSubmissionExists

type SubmissionDAO interface {
	Accrue(ctx context.Context, userID, challengeID uint, proof string, fn dao.AccrueFunc) (dao.AccrualOutcome, error)
}

type SubmissionRepository struct {
	dao SubmissionDAO
}

func NewSubmissionRepository(dao SubmissionDAO) *SubmissionRepository {
	return &SubmissionRepository{
		dao: dao,
	}
}

// Accrue runs policy against the locked user state inside the storage transaction.
func (r *SubmissionRepository) Accrue(ctx context.Context, userID, challengeID uint, proof string, policy domain.BadgePolicy) (domain.SubmissionResult, error) {
	outcome, err := r.dao.Accrue(ctx, userID, challengeID, proof, func(points, reward int, held map[string]bool) (int, []string) {
		next, awarded := policy.Accrue(domain.UserState{Points: points, Held: held}, reward)

		names := make([]string, 0, len(awarded))
		for _, a := range awarded {
			names = append(names, a.Name)
		}

		return next.Points, names
	})
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("r.dao.Accrue -> %w", err)
	}

	return domain.SubmissionResult{
		Submission: domain.Submission{
			ID:          outcome.Submission.ID,
			UserID:      outcome.Submission.UserID,
			ChallengeID: outcome.Submission.ChallengeID,
			Proof:       outcome.Submission.Proof,
			SubmittedAt: outcome.Submission.SubmittedAt,
		},
		Reward: outcome.Reward,
		Points: outcome.User.Points,
		Badges: badgesDaoToDomain(outcome.Badges),
		School: outcome.User.School,
	}, nil
}
