package redis

import (
	"context"
	"errors"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHED LEARNER REPOSITORY
// Read-through decorator over learner.Repository. GetByID is the hot path
// of every command and query, so it is served from Redis when possible.
// Writes go to the underlying repository first and then refresh the cache,
// so a lazily downgraded subscription is visible to the next reader.
// ══════════════════════════════════════════════════════════════════════════════

// CachedLearnerRepository wraps a learner.Repository with a Redis cache.
type CachedLearnerRepository struct {
	inner  learner.Repository
	cache  learner.Cache
	logger *logger.Logger
}

// NewCachedLearnerRepository creates a caching decorator over repo.
func NewCachedLearnerRepository(inner learner.Repository, cache learner.Cache, log *logger.Logger) *CachedLearnerRepository {
	if log == nil {
		log = logger.Default()
	}

	return &CachedLearnerRepository{
		inner:  inner,
		cache:  cache,
		logger: log.With(logger.Component("cached_learner_repo")),
	}
}

// GetByID returns the learner from cache when present, falling back to
// the underlying repository. Cache failures are logged and ignored.
func (r *CachedLearnerRepository) GetByID(ctx context.Context, learnerID string) (*learner.Learner, error) {
	if cached, err := r.cache.Get(ctx, learnerID); err == nil {
		return cached, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		r.logger.Warn("learner cache read failed",
			logger.LearnerID(learnerID),
			logger.Err(err),
		)
	}

	l, err := r.inner.GetByID(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, l, TTLLearnerCache); err != nil {
		r.logger.Warn("learner cache write failed",
			logger.LearnerID(learnerID),
			logger.Err(err),
		)
	}

	return l, nil
}

// Create persists the learner and warms the cache.
func (r *CachedLearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	if err := r.inner.Create(ctx, l); err != nil {
		return err
	}
	r.refresh(ctx, l)
	return nil
}

// Update persists the learner and refreshes the cache entry so the
// change is visible to the next cached read.
func (r *CachedLearnerRepository) Update(ctx context.Context, l *learner.Learner) error {
	if err := r.inner.Update(ctx, l); err != nil {
		return err
	}
	r.refresh(ctx, l)
	return nil
}

// GetAll bypasses the cache.
func (r *CachedLearnerRepository) GetAll(ctx context.Context, opts learner.ListOptions) ([]*learner.Learner, error) {
	return r.inner.GetAll(ctx, opts)
}

// GetByIDs bypasses the cache.
func (r *CachedLearnerRepository) GetByIDs(ctx context.Context, ids []string) ([]*learner.Learner, error) {
	return r.inner.GetByIDs(ctx, ids)
}

// Count bypasses the cache.
func (r *CachedLearnerRepository) Count(ctx context.Context) (int, error) {
	return r.inner.Count(ctx)
}

// TopByCoins bypasses the cache: the coin leaderboard has its own
// sorted-set cache.
func (r *CachedLearnerRepository) TopByCoins(ctx context.Context, limit int) ([]learner.CoinEntry, error) {
	return r.inner.TopByCoins(ctx, limit)
}

// Exists bypasses the cache.
func (r *CachedLearnerRepository) Exists(ctx context.Context, learnerID string) (bool, error) {
	return r.inner.Exists(ctx, learnerID)
}

// refresh re-caches the learner after a write. On failure the stale
// entry is dropped so the next read goes to the repository.
func (r *CachedLearnerRepository) refresh(ctx context.Context, l *learner.Learner) {
	if err := r.cache.Set(ctx, l, TTLLearnerCache); err != nil {
		r.logger.Warn("learner cache refresh failed",
			logger.LearnerID(l.ID),
			logger.Err(err),
		)
		if err := r.cache.Invalidate(ctx, l.ID); err != nil {
			r.logger.Warn("learner cache invalidation failed",
				logger.LearnerID(l.ID),
				logger.Err(err),
			)
		}
	}
}
