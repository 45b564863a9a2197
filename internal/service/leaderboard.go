package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecoquest/ecoquest-api/internal/domain"
)

type LeaderboardUserRepository interface {
	FindTopBySchool(ctx context.Context, school string, limit int) ([]domain.User, error)
}

// LeaderboardCache fronts the ranking query. Get calls load on a miss.
type LeaderboardCache interface {
	Get(ctx context.Context, school string, limit int, load func(ctx context.Context) ([]domain.LeaderboardEntry, error)) ([]domain.LeaderboardEntry, error)
	Invalidate(ctx context.Context, school string) error
}

type LeaderboardService struct {
	repo   LeaderboardUserRepository
	cache  LeaderboardCache
	levels domain.LevelLadder
}

// NewLeaderboardService accepts a nil cache, in which case every call hits the repository.
func NewLeaderboardService(repo LeaderboardUserRepository, cache LeaderboardCache, levels domain.LevelLadder) *LeaderboardService {
	return &LeaderboardService{
		repo:   repo,
		cache:  cache,
		levels: levels,
	}
}

func (s *LeaderboardService) Leaderboard(ctx context.Context, school string, limit int) ([]domain.LeaderboardEntry, error) {
	limit = domain.NormalizeLeaderboardLimit(limit)

	load := func(ctx context.Context) ([]domain.LeaderboardEntry, error) {
		return s.load(ctx, school, limit)
	}
	if s.cache == nil {
		return load(ctx)
	}

	entries, err := s.cache.Get(ctx, school, limit, load)
	if err != nil {
		return nil, fmt.Errorf("s.cache.Get -> %w", err)
	}

	return entries, nil
}

func (s *LeaderboardService) load(ctx context.Context, school string, limit int) ([]domain.LeaderboardEntry, error) {
	users, err := s.repo.FindTopBySchool(ctx, school, limit)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindTopBySchool -> %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:   i + 1,
			UserID: u.ID,
			Name:   u.Name,
			School: u.School,
			Points: u.Points,
			Level:  s.levels.For(u.Points),
		})
	}

	return entries, nil
}

// SubmissionAccepted drops the cached rankings of the submitter's school.
func (s *LeaderboardService) SubmissionAccepted(ctx context.Context, result domain.SubmissionResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, result.School); err != nil {
		zap.L().Warn("failed to invalidate leaderboard cache", zap.String("school", result.School), zap.Error(err))
	}
}
