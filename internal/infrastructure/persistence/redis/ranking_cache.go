package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alem-hub/achievement-hub/internal/infrastructure/ranking"
)

var (
	// ErrUserNotRanked is returned when a user has no ranking entry.
	ErrUserNotRanked = errors.New("ranking_cache: user not in ranking")

	// ErrUserIDEmpty is returned for entries without a user ID.
	ErrUserIDEmpty = errors.New("ranking_cache: user id is empty")

	// ErrInvalidCount is returned for non-positive result sizes.
	ErrInvalidCount = errors.New("ranking_cache: count must be positive")
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING CACHE
// ══════════════════════════════════════════════════════════════════════════════

// RankingCache implements ranking.Store on Redis.
//
// Layout per cohort:
//   - Sorted set "ranking:points:{cohort}" maps user ID to points
//   - Hash "ranking:entry:{cohort}" maps user ID to the entry JSON
type RankingCache struct {
	cache *Cache
	ttl   time.Duration
}

const (
	keyRankingPoints  = PrefixRanking + "points:"
	keyRankingEntry   = PrefixRanking + "entry:"
	keyRankingAverage = PrefixRanking + "avg:"

	defaultCohort = "default"
)

// DefaultRankingTTL is used when NewRankingCache gets a non-positive TTL.
const DefaultRankingTTL = 24 * time.Hour

// averageTTL bounds how long a cohort average is served from cache.
const averageTTL = time.Minute

// NewRankingCache creates a RankingCache. Keys expire ttl after the last write.
func NewRankingCache(cache *Cache, ttl time.Duration) *RankingCache {
	if ttl <= 0 {
		ttl = DefaultRankingTTL
	}
	return &RankingCache{cache: cache, ttl: ttl}
}

// PointsKey returns the sorted set key for cohort.
func PointsKey(cohort string) string {
	return keyRankingPoints + normalizeCohort(cohort)
}

// EntryKey returns the hash key for cohort.
func EntryKey(cohort string) string {
	return keyRankingEntry + normalizeCohort(cohort)
}

// AverageKey returns the cached cohort average key.
func AverageKey(cohort string) string {
	return keyRankingAverage + normalizeCohort(cohort)
}

func normalizeCohort(cohort string) string {
	if cohort == "" {
		return defaultCohort
	}
	return cohort
}

// Upsert implements ranking.Store. Score and entry are written in one pipeline.
func (r *RankingCache) Upsert(ctx context.Context, cohort string, entry ranking.Entry) error {
	if entry.UserID == "" {
		return ErrUserIDEmpty
	}

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	pointsKey := PointsKey(cohort)
	entryKey := EntryKey(cohort)

	pipe := r.cache.Client().Pipeline()
	pipe.ZAdd(ctx, pointsKey, redis.Z{
		Score:  float64(entry.Points),
		Member: entry.UserID,
	})
	pipe.HSet(ctx, entryKey, entry.UserID, data)
	pipe.Expire(ctx, pointsKey, r.ttl)
	pipe.Expire(ctx, entryKey, r.ttl)
	pipe.Del(ctx, AverageKey(cohort))

	_, err = pipe.Exec(ctx)
	return err
}

// Remove deletes a user from the cohort ranking.
func (r *RankingCache) Remove(ctx context.Context, cohort, userID string) error {
	if userID == "" {
		return ErrUserIDEmpty
	}
	pipe := r.cache.Client().Pipeline()
	pipe.ZRem(ctx, PointsKey(cohort), userID)
	pipe.HDel(ctx, EntryKey(cohort), userID)
	pipe.Del(ctx, AverageKey(cohort))
	_, err := pipe.Exec(ctx)
	return err
}

// RankedEntry is an entry with its 1-based position.
type RankedEntry struct {
	ranking.Entry
	Rank int64 `json:"rank"`
}

// Top returns the count highest-scoring entries, best first.
func (r *RankingCache) Top(ctx context.Context, cohort string, count int) ([]RankedEntry, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}

	ids, err := r.cache.Client().ZRevRange(ctx, PointsKey(cohort), 0, int64(count-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []RankedEntry{}, nil
	}

	raw, err := r.cache.Client().HMGet(ctx, EntryKey(cohort), ids...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]RankedEntry, 0, len(ids))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		entry, err := decodeEntry([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, RankedEntry{Entry: entry, Rank: int64(i + 1)})
	}
	return out, nil
}

// TopEntries is Top without ranks.
func (r *RankingCache) TopEntries(ctx context.Context, cohort string, count int) ([]ranking.Entry, error) {
	ranked, err := r.Top(ctx, cohort, count)
	if err != nil {
		return nil, err
	}
	out := make([]ranking.Entry, 0, len(ranked))
	for _, e := range ranked {
		out = append(out, e.Entry)
	}
	return out, nil
}

// Rank returns the 1-based rank of a user.
func (r *RankingCache) Rank(ctx context.Context, cohort, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUserIDEmpty
	}

	rank, err := r.cache.Client().ZRevRank(ctx, PointsKey(cohort), userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrUserNotRanked
		}
		return 0, err
	}
	return rank + 1, nil
}

// Entry returns the stored entry for a user with its rank.
func (r *RankingCache) Entry(ctx context.Context, cohort, userID string) (*RankedEntry, error) {
	if userID == "" {
		return nil, ErrUserIDEmpty
	}

	data, err := r.cache.Client().HGet(ctx, EntryKey(cohort), userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUserNotRanked
		}
		return nil, err
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, err
	}

	ranked := &RankedEntry{Entry: entry}
	if rank, err := r.Rank(ctx, cohort, userID); err == nil {
		ranked.Rank = rank
	}
	return ranked, nil
}

// AveragePoints returns the mean points over the whole cohort, rounded down.
// The value is cached until the next write to the cohort or for averageTTL.
func (r *RankingCache) AveragePoints(ctx context.Context, cohort string) (int, error) {
	key := AverageKey(cohort)

	var avg int
	err := r.cache.Get(ctx, key, &avg)
	if err == nil {
		return avg, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return 0, err
	}

	scores, err := r.cache.Client().ZRangeWithScores(ctx, PointsKey(cohort), 0, -1).Result()
	if err != nil {
		return 0, err
	}
	avg = averageOf(scores)
	_ = r.cache.Set(ctx, key, avg, averageTTL)
	return avg, nil
}

func averageOf(scores []redis.Z) int {
	if len(scores) == 0 {
		return 0
	}
	var total float64
	for _, z := range scores {
		total += z.Score
	}
	return int(total) / len(scores)
}

// Count returns the number of ranked users in cohort.
func (r *RankingCache) Count(ctx context.Context, cohort string) (int64, error) {
	return r.cache.Client().ZCard(ctx, PointsKey(cohort)).Result()
}

// Invalidate drops the whole cohort ranking.
func (r *RankingCache) Invalidate(ctx context.Context, cohort string) error {
	return r.cache.Delete(ctx, PointsKey(cohort), EntryKey(cohort), AverageKey(cohort))
}

func encodeEntry(entry ranking.Entry) ([]byte, error) {
	if entry.Achievements == nil {
		entry.Achievements = []string{}
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return data, nil
}

func decodeEntry(data []byte) (ranking.Entry, error) {
	var entry ranking.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return ranking.Entry{}, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return entry, nil
}
