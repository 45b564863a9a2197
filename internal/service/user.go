package service

import (
	"context"
	"fmt"

	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/repository"
)

var (
	ErrUserNotFound = repository.ErrUserNotFound
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type BadgeRepository interface {
	FindByUserID(ctx context.Context, userID uint) ([]domain.Badge, error)
}

type UserService struct {
	repo      UserRepository
	badgeRepo BadgeRepository
	levels    domain.LevelLadder
}

func NewUserService(repo UserRepository, badgeRepo BadgeRepository, levels domain.LevelLadder) *UserService {
	return &UserService{
		repo:      repo,
		badgeRepo: badgeRepo,
		levels:    levels,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	user.Level = s.levels.For(user.Points)

	return user, nil
}

// ResolveIdentity is used by the auth middleware to turn a token subject into
// an identity. Unknown users surface as ErrUserNotFound.
func (s *UserService) ResolveIdentity(ctx context.Context, id uint) (domain.Identity, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user.Identity(), nil
}

func (s *UserService) GetBadges(ctx context.Context, userID uint) ([]domain.Badge, error) {
	badges, err := s.badgeRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.badgeRepo.FindByUserID -> %w", err)
	}

	return badges, nil
}
