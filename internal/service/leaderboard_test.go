package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoquest/ecoquest-api/internal/domain"
)

func seedUsers() *fakeUserRepo {
	return newFakeUserRepo(
		domain.User{ID: 1, Name: "Ada", School: "Greenfield", Points: 120},
		domain.User{ID: 2, Name: "Bo", School: "Greenfield", Points: 60},
		domain.User{ID: 3, Name: "Cy", School: "Riverside", Points: 500},
		domain.User{ID: 4, Name: "Di", School: "Greenfield", Points: 10},
	)
}

func TestLeaderboardService_Leaderboard(t *testing.T) {
	svc := NewLeaderboardService(seedUsers(), nil, domain.DefaultLevelLadder())

	entries, err := svc.Leaderboard(context.Background(), "Greenfield", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "Ada", entries[0].Name)
	assert.Equal(t, "Green Champion", entries[0].Level)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "Eco Warrior", entries[1].Level)

	entries, err = svc.Leaderboard(context.Background(), "Nowhere", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLeaderboardService_Cache(t *testing.T) {
	ctx := context.Background()
	cache := newFakeLeaderboardCache()
	svc := NewLeaderboardService(seedUsers(), cache, domain.DefaultLevelLadder())

	_, err := svc.Leaderboard(ctx, "Greenfield", 0)
	require.NoError(t, err)
	_, err = svc.Leaderboard(ctx, "Greenfield", domain.DefaultLeaderboardLimit)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.loads, "zero limit shares the default limit's cache entry")

	svc.SubmissionAccepted(ctx, domain.SubmissionResult{School: "Greenfield"})
	assert.Equal(t, []string{"Greenfield"}, cache.invalidated)

	_, err = svc.Leaderboard(ctx, "Greenfield", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.loads)
}

func TestLeaderboardService_InvalidateFailureIsSwallowed(t *testing.T) {
	cache := newFakeLeaderboardCache()
	cache.err = errors.New("redis down")
	svc := NewLeaderboardService(seedUsers(), cache, domain.DefaultLevelLadder())

	assert.NotPanics(t, func() {
		svc.SubmissionAccepted(context.Background(), domain.SubmissionResult{School: "Greenfield"})
	})
}
