package cached

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-directory-service/internal/adapter/cache"
	domain "user-directory-service/internal/domain/user"
	"user-directory-service/internal/usecase/user"
)

// UserRepository implements user.Repository with cache-aside reads by ID.
// Email lookups always go to the database since they guard uniqueness.
type UserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group

	// generations counts updates per id; a read started before an update
	// must not write its result to the cache.
	mu          sync.Mutex
	generations map[int64]uint64
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository wraps dbRepo with c. A nil cache disables caching.
func NewUserRepository(dbRepo user.Repository, c cache.UserCache, log *zap.Logger) *UserRepository {
	return &UserRepository{
		dbRepo:      dbRepo,
		cache:       c,
		log:         log,
		generations: make(map[int64]uint64),
	}
}

// Create delegates to the DB repository.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	return r.dbRepo.Create(ctx, u)
}

// GetByID retrieves a user by ID, consulting the cache first.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		} else if cachedUser != nil {
			return cachedUser, nil
		}
	}

	// Concurrent misses for the same id share one database read. The read
	// outlives any single caller's cancellation.
	result, err, shared := r.group.Do(flightKey(id), func() (any, error) {
		readCtx := context.WithoutCancel(ctx)
		gen := r.generation(id)

		u, err := r.dbRepo.GetByID(readCtx, id)
		if err != nil {
			return nil, err
		}

		if r.cache != nil {
			r.cacheIfCurrent(readCtx, u, gen)
		}

		return u, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.log.Debug("database read shared", zap.Int64("id", id))
	}

	// Callers may mutate what they get back.
	u := *result.(*domain.User)
	return &u, nil
}

// GetByEmail delegates to the DB repository.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.dbRepo.GetByEmail(ctx, email)
}

// Update updates the user in DB and invalidates the cache.
func (r *UserRepository) Update(ctx context.Context, id int64, patch domain.Patch) (int64, error) {
	updated, err := r.dbRepo.Update(ctx, id, patch)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.generations[id]++
	r.mu.Unlock()
	r.group.Forget(flightKey(id))

	if r.cache != nil {
		if err := r.cache.Delete(ctx, id); err != nil {
			r.log.Warn("failed to invalidate cache after update", zap.Int64("id", id), zap.Error(err))
		}
	}

	return updated, nil
}

func flightKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (r *UserRepository) generation(id int64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[id]
}

// cacheIfCurrent stores u unless an update to it landed since gen was taken.
// The lock is held across Set so that an update's invalidation follows it.
func (r *UserRepository) cacheIfCurrent(ctx context.Context, u *domain.User, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.generations[u.ID] != gen {
		r.log.Debug("skipping cache fill for updated user", zap.Int64("id", u.ID))
		return
	}
	if err := r.cache.Set(ctx, u); err != nil {
		r.log.Warn("failed to cache user", zap.Int64("id", u.ID), zap.Error(err))
	}
}
