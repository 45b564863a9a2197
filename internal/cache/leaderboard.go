package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ecoquest/ecoquest-api/internal/domain"
)

// LeaderboardCache stores rendered leaderboards as JSON strings.
// Keys are tracked per school so a submission can drop every cached limit:
//
//	leaderboard:{school}:{limit}  -> JSON entries
//	leaderboard:{school}:keys     -> SET of the keys above
//	leaderboard:{school}:version  -> bumped by every Invalidate
//
// A load only writes back if the version it started under is still current,
// so a ranking read before a submission never outlives the invalidation.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
}

var errStaleLoad = errors.New("leaderboard invalidated during load")

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *LeaderboardCache) Get(ctx context.Context, school string, limit int, load func(ctx context.Context) ([]domain.LeaderboardEntry, error)) ([]domain.LeaderboardEntry, error) {
	key := entriesKey(school, limit)

	if entries, ok := c.read(ctx, key); ok {
		return entries, nil
	}

	// Callers that miss after an invalidation must not join a load that began before it.
	version, cacheable := c.version(ctx, school)
	flightKey := key + "@" + strconv.FormatInt(version, 10)
	if !cacheable {
		flightKey = key + "@nocache"
	}

	result, err, _ := c.sf.Do(flightKey, func() (interface{}, error) {
		// Shared by every waiter, so one caller hanging up must not fail the rest.
		shared := context.WithoutCancel(ctx)

		if entries, ok := c.read(shared, key); ok {
			return entries, nil
		}

		entries, err := load(shared)
		if err != nil {
			return nil, err
		}
		if cacheable {
			c.write(shared, school, key, version, entries)
		}

		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]domain.LeaderboardEntry), nil
}

func (c *LeaderboardCache) Invalidate(ctx context.Context, school string) error {
	// Bump first: a write that already passed its version check is deleted below,
	// and any later one fails the check.
	if err := c.client.Incr(ctx, versionKey(school)).Err(); err != nil {
		return fmt.Errorf("c.client.Incr -> %w", err)
	}

	index := indexKey(school)

	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("c.client.SMembers -> %w", err)
	}

	if err = c.client.Del(ctx, append(keys, index)...).Err(); err != nil {
		return fmt.Errorf("c.client.Del -> %w", err)
	}

	return nil
}

// version reports the school's invalidation counter. ok is false when Redis
// cannot be reached, in which case the result must not be written back.
func (c *LeaderboardCache) version(ctx context.Context, school string) (int64, bool) {
	v, err := c.client.Get(ctx, versionKey(school)).Int64()
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, redis.Nil):
		return 0, true
	default:
		zap.L().Warn("leaderboard cache version read failed", zap.String("school", school), zap.Error(err))
		return 0, false
	}
}

func (c *LeaderboardCache) read(ctx context.Context, key string) ([]domain.LeaderboardEntry, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("leaderboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var entries []domain.LeaderboardEntry
	if err = json.Unmarshal(raw, &entries); err != nil {
		zap.L().Warn("leaderboard cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return entries, true
}

// write is best effort; a failed write only costs the next reader a query.
// It is skipped when the school was invalidated after the load started.
func (c *LeaderboardCache) write(ctx context.Context, school, key string, version int64, entries []domain.LeaderboardEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey(school)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleLoad
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			pipe.SAdd(ctx, indexKey(school), key)
			if c.ttl > 0 {
				pipe.Expire(ctx, indexKey(school), c.ttl)
			}
			return nil
		})
		return err
	}, versionKey(school))

	switch {
	case err == nil:
	case errors.Is(err, errStaleLoad), errors.Is(err, redis.TxFailedErr):
		zap.L().Debug("leaderboard cache write skipped after invalidation", zap.String("key", key))
	default:
		zap.L().Warn("leaderboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func entriesKey(school string, limit int) string {
	return "leaderboard:" + school + ":" + strconv.Itoa(limit)
}

func indexKey(school string) string {
	return "leaderboard:" + school + ":keys"
}

func versionKey(school string) string {
	return "leaderboard:" + school + ":version"
}
