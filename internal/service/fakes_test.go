package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ecoquest/ecoquest-api/internal/domain"
	"github.com/ecoquest/ecoquest-api/internal/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint]domain.User
	nextID uint
	err    error
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uint]domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.User{}, repository.ErrUserEmailExists
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.User{}, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.User{}, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrUserNotFound
}

// FindTopBySchool returns users in insertion order; ranking order is the dao's job.
func (r *fakeUserRepo) FindTopBySchool(_ context.Context, school string, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0)
	for id := uint(1); id <= r.nextID && len(out) < limit; id++ {
		if u, ok := r.users[id]; ok && u.School == school {
			out = append(out, u)
		}
	}
	return out, nil
}

// fakeSubmissionRepo applies the policy to in-memory state under one lock,
// mirroring the row lock the dao takes.
type fakeSubmissionRepo struct {
	mu         sync.Mutex
	users      map[uint]*domain.User
	challenges map[uint]domain.Challenge
	held       map[uint]map[string]bool
	submitted  map[[2]uint]bool
	nextID     uint
}

func newFakeSubmissionRepo(users []domain.User, challenges []domain.Challenge) *fakeSubmissionRepo {
	r := &fakeSubmissionRepo{
		users:      map[uint]*domain.User{},
		challenges: map[uint]domain.Challenge{},
		held:       map[uint]map[string]bool{},
		submitted:  map[[2]uint]bool{},
	}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
		r.held[u.ID] = map[string]bool{}
	}
	for _, c := range challenges {
		r.challenges[c.ID] = c
	}
	return r
}

func (r *fakeSubmissionRepo) Accrue(_ context.Context, userID, challengeID uint, proof string, policy domain.BadgePolicy) (domain.SubmissionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return domain.SubmissionResult{}, repository.ErrUserNotFound
	}
	challenge, ok := r.challenges[challengeID]
	if !ok {
		return domain.SubmissionResult{}, repository.ErrChallengeNotFound
	}
	key := [2]uint{userID, challengeID}
	if r.submitted[key] {
		return domain.SubmissionResult{}, repository.ErrSubmissionExists
	}

	next, awarded := policy.Accrue(domain.UserState{Points: user.Points, Held: r.held[userID]}, challenge.Points)
	r.submitted[key] = true
	r.nextID++
	user.Points = next.Points

	badges := make([]domain.Badge, 0, len(awarded))
	for _, a := range awarded {
		r.held[userID][a.Name] = true
		badges = append(badges, domain.Badge{UserID: userID, Name: a.Name, EarnedAt: time.Now()})
	}

	return domain.SubmissionResult{
		Submission: domain.Submission{ID: r.nextID, UserID: userID, ChallengeID: challengeID, Proof: proof, SubmittedAt: time.Now()},
		Reward:     challenge.Points,
		Points:     next.Points,
		Badges:     badges,
		School:     user.School,
	}, nil
}

type recordingObserver struct {
	name string
	mu   sync.Mutex
	log  *[]string
	got  []domain.SubmissionResult
}

func (o *recordingObserver) SubmissionAccepted(_ context.Context, result domain.SubmissionResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, result)
	if o.log != nil {
		*o.log = append(*o.log, o.name)
	}
}

type fakeLeaderboardCache struct {
	mu          sync.Mutex
	entries     map[string][]domain.LeaderboardEntry
	loads       int
	invalidated []string
	err         error
}

func newFakeLeaderboardCache() *fakeLeaderboardCache {
	return &fakeLeaderboardCache{entries: map[string][]domain.LeaderboardEntry{}}
}

func cacheKey(school string, limit int) string {
	return fmt.Sprintf("%s/%d", school, limit)
}

func (c *fakeLeaderboardCache) Get(ctx context.Context, school string, limit int, load func(ctx context.Context) ([]domain.LeaderboardEntry, error)) ([]domain.LeaderboardEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entries, ok := c.entries[cacheKey(school, limit)]; ok {
		return entries, nil
	}
	c.loads++
	entries, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.entries[cacheKey(school, limit)] = entries
	return entries, nil
}

func (c *fakeLeaderboardCache) Invalidate(_ context.Context, school string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, school)
	for k := range c.entries {
		if strings.HasPrefix(k, school+"/") {
			delete(c.entries, k)
		}
	}
	return c.err
}

type fakeChallengeRepo struct {
	challenges []domain.Challenge
}

func (r *fakeChallengeRepo) Create(_ context.Context, challenge domain.Challenge) (domain.Challenge, error) {
	challenge.ID = uint(len(r.challenges) + 1)
	challenge.CreatedAt = time.Now()
	r.challenges = append(r.challenges, challenge)
	return challenge, nil
}

func (r *fakeChallengeRepo) FindByID(_ context.Context, id uint) (domain.Challenge, error) {
	for _, c := range r.challenges {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Challenge{}, repository.ErrChallengeNotFound
}

func (r *fakeChallengeRepo) FindAll(_ context.Context) ([]domain.Challenge, error) {
	return r.challenges, nil
}

type fakeBadgeRepo struct {
	badges map[uint][]domain.Badge
}

func (r *fakeBadgeRepo) FindByUserID(_ context.Context, userID uint) ([]domain.Badge, error) {
	return r.badges[userID], nil
}
