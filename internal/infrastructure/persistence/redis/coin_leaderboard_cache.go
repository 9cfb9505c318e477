// Package redis implements Redis caching for hot read paths.
package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// COIN LEADERBOARD CACHE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLearnerIDEmpty is returned when an empty learner ID is provided.
	ErrLearnerIDEmpty = errors.New("leaderboard_cache: learner ID cannot be empty")

	// ErrLearnerNotRanked is returned when the learner is not in the leaderboard.
	ErrLearnerNotRanked = errors.New("leaderboard_cache: learner not in leaderboard")

	// ErrInvalidLimit is returned when a non-positive limit is provided.
	ErrInvalidLimit = errors.New("leaderboard_cache: invalid limit")
)

// ══════════════════════════════════════════════════════════════════════════════
// COIN LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// CoinLeaderboardCache provides high-performance coin leaderboard reads
// using Redis Sorted Sets.
//
// Architecture:
//   - Sorted Set "leaderboard:coins" stores learnerID -> coin balance
//   - Hash "leaderboard:names" stores learnerID -> display name
//
// This design allows O(log N) rank lookups and O(log N + M) range queries.
// PostgreSQL stays the source of truth; the cache is rebuilt from it on a
// miss and updated write-through after each completion.
type CoinLeaderboardCache struct {
	cache *Cache
}

// Key patterns for the coin leaderboard cache.
const (
	// keyLeaderboardCoins is the sorted set for coin rankings.
	keyLeaderboardCoins = PrefixLeaderboard + "coins"

	// keyLeaderboardNames is the hash for display names.
	keyLeaderboardNames = PrefixLeaderboard + "names"
)

// NewCoinLeaderboardCache creates a new CoinLeaderboardCache instance.
func NewCoinLeaderboardCache(cache *Cache) *CoinLeaderboardCache {
	return &CoinLeaderboardCache{cache: cache}
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateScore updates or adds a single learner's coin balance.
// This is an O(log N) operation.
func (l *CoinLeaderboardCache) UpdateScore(ctx context.Context, entry learner.CoinEntry) error {
	if entry.LearnerID == "" {
		return ErrLearnerIDEmpty
	}

	// Skip the write when the cache is cold: a partial sorted set would
	// serve wrong rankings. The next read rebuilds it in full.
	exists, err := l.cache.Exists(ctx, keyLeaderboardCoins)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	pipe := l.cache.Client().Pipeline()

	pipe.ZAdd(ctx, keyLeaderboardCoins, redis.Z{
		Score:  float64(entry.Coins),
		Member: entry.LearnerID,
	})
	pipe.HSet(ctx, keyLeaderboardNames, entry.LearnerID, entry.DisplayName)
	pipe.Expire(ctx, keyLeaderboardCoins, TTLLeaderboardCache)
	pipe.Expire(ctx, keyLeaderboardNames, TTLLeaderboardCache)

	_, err = pipe.Exec(ctx)
	return err
}

// Rebuild replaces the cached leaderboard with a full snapshot.
func (l *CoinLeaderboardCache) Rebuild(ctx context.Context, entries []learner.CoinEntry) error {
	// Transaction pipeline so readers never observe a half-built set.
	pipe := l.cache.Client().TxPipeline()

	pipe.Del(ctx, keyLeaderboardCoins, keyLeaderboardNames)

	if len(entries) == 0 {
		_, err := pipe.Exec(ctx)
		return err
	}

	zMembers := make([]redis.Z, 0, len(entries))
	names := make(map[string]interface{}, len(entries))

	for _, entry := range entries {
		if entry.LearnerID == "" {
			continue
		}

		zMembers = append(zMembers, redis.Z{
			Score:  float64(entry.Coins),
			Member: entry.LearnerID,
		})
		names[entry.LearnerID] = entry.DisplayName
	}

	if len(zMembers) > 0 {
		pipe.ZAdd(ctx, keyLeaderboardCoins, zMembers...)
	}
	if len(names) > 0 {
		pipe.HSet(ctx, keyLeaderboardNames, names)
	}

	pipe.Expire(ctx, keyLeaderboardCoins, TTLLeaderboardCache)
	pipe.Expire(ctx, keyLeaderboardNames, TTLLeaderboardCache)

	_, err := pipe.Exec(ctx)
	return err
}

// Remove removes a learner from the cached leaderboard.
func (l *CoinLeaderboardCache) Remove(ctx context.Context, learnerID string) error {
	if learnerID == "" {
		return ErrLearnerIDEmpty
	}

	pipe := l.cache.Client().Pipeline()
	pipe.ZRem(ctx, keyLeaderboardCoins, learnerID)
	pipe.HDel(ctx, keyLeaderboardNames, learnerID)

	_, err := pipe.Exec(ctx)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// TopN returns the top N entries by coin balance.
// Returns ErrCacheMiss when the leaderboard is not cached.
func (l *CoinLeaderboardCache) TopN(ctx context.Context, limit int) ([]learner.CoinEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	exists, err := l.cache.Exists(ctx, keyLeaderboardCoins)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCacheMiss
	}

	members, err := l.cache.Client().ZRevRangeWithScores(ctx, keyLeaderboardCoins, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	if len(members) == 0 {
		return []learner.CoinEntry{}, nil
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i], _ = m.Member.(string)
	}

	names, err := l.cache.Client().HMGet(ctx, keyLeaderboardNames, ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]learner.CoinEntry, 0, len(members))
	for i, m := range members {
		entry := learner.CoinEntry{
			LearnerID: ids[i],
			Coins:     learner.Coins(int(m.Score)),
		}
		if i < len(names) && names[i] != nil {
			if name, ok := names[i].(string); ok {
				entry.DisplayName = name
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// GetRank returns the rank (1-based) of a learner.
// Returns ErrLearnerNotRanked if the learner is not found.
func (l *CoinLeaderboardCache) GetRank(ctx context.Context, learnerID string) (int64, error) {
	if learnerID == "" {
		return 0, ErrLearnerIDEmpty
	}

	// ZRevRank returns 0-based rank (0 = highest score)
	rank, err := l.cache.Client().ZRevRank(ctx, keyLeaderboardCoins, learnerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrLearnerNotRanked
		}
		return 0, err
	}

	return rank + 1, nil // Convert to 1-based
}

// GetCoins returns the cached coin balance of a learner.
func (l *CoinLeaderboardCache) GetCoins(ctx context.Context, learnerID string) (learner.Coins, error) {
	if learnerID == "" {
		return 0, ErrLearnerIDEmpty
	}

	score, err := l.cache.Client().ZScore(ctx, keyLeaderboardCoins, learnerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrLearnerNotRanked
		}
		return 0, err
	}

	return learner.Coins(int(score)), nil
}

// Count returns the total number of entries in the cached leaderboard.
func (l *CoinLeaderboardCache) Count(ctx context.Context) (int64, error) {
	return l.cache.Client().ZCard(ctx, keyLeaderboardCoins).Result()
}

// Exists checks if the leaderboard cache is populated.
func (l *CoinLeaderboardCache) Exists(ctx context.Context) (bool, error) {
	return l.cache.Exists(ctx, keyLeaderboardCoins)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAINTENANCE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Invalidate removes all cached leaderboard data.
func (l *CoinLeaderboardCache) Invalidate(ctx context.Context) error {
	return l.cache.Delete(ctx, keyLeaderboardCoins, keyLeaderboardNames)
}
