package performance

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Cache keeps each segment's best known time per user in a redis sorted
// set. Best-effort only: Postgres stays the ground truth and a cache miss
// just means falling back to the leaderboard query.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	if rdb == nil {
		return nil
	}
	return &Cache{rdb: rdb}
}

func bestKey(segmentID string) string {
	return "segments:" + segmentID + ":best"
}

// RecordTime lowers the user's cached time for the segment, keeping the
// minimum (ZADD LT never worsens an existing score).
func (c *Cache) RecordTime(ctx context.Context, segmentID, userID string, durationS int64) error {
	return c.rdb.ZAddLT(ctx, bestKey(segmentID), redis.Z{
		Score:  float64(durationS),
		Member: userID,
	}).Err()
}

// Best returns the current record holder and time for a segment. ok is
// false when the set is empty or the key is missing.
func (c *Cache) Best(ctx context.Context, segmentID string) (userID string, durationS int64, ok bool, err error) {
	entries, err := c.rdb.ZRangeWithScores(ctx, bestKey(segmentID), 0, 0).Result()
	if errors.Is(err, redis.Nil) || len(entries) == 0 {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	member, _ := entries[0].Member.(string)
	return member, int64(entries[0].Score), true, nil
}

// Invalidate drops a segment's cached times, e.g. after deactivation.
func (c *Cache) Invalidate(ctx context.Context, segmentID string) error {
	return c.rdb.Del(ctx, bestKey(segmentID)).Err()
}
