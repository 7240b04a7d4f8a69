package cached

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-directory-service/internal/adapter/cache"
	domain "user-directory-service/internal/domain/user"
)

type MockRepository struct {
	mock.Mock
	reads atomic.Int32
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.reads.Add(1)
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id int64, patch domain.Patch) (int64, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(int64), args.Error(1)
}

func setup(t *testing.T) (*UserRepository, *MockRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := new(MockRepository)
	log := zaptest.NewLogger(t)
	return NewUserRepository(db, cache.NewRedisUserCache(client, time.Minute, log), log), db, mr
}

func stored() *domain.User {
	return &domain.User{ID: 7, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "h"}
}

func TestGetByID_PopulatesCache(t *testing.T) {
	repo, db, mr := setup(t)
	db.On("GetByID", mock.Anything, int64(7)).Return(stored(), nil)

	first, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	second, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, stored(), first)
	assert.Equal(t, stored(), second)
	assert.True(t, mr.Exists(cache.Key(7)))
	db.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestGetByID_NotFoundIsNotCached(t *testing.T) {
	repo, db, mr := setup(t)
	db.On("GetByID", mock.Anything, int64(935098)).Return(nil, domain.ErrNotFound)

	_, err := repo.GetByID(context.Background(), 935098)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists(cache.Key(935098)))
}

func TestGetByID_CacheDownFallsBack(t *testing.T) {
	repo, db, mr := setup(t)
	db.On("GetByID", mock.Anything, int64(7)).Return(stored(), nil)
	mr.Close()

	u, err := repo.GetByID(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, stored(), u)
}

func TestGetByID_NoCache(t *testing.T) {
	db := new(MockRepository)
	repo := NewUserRepository(db, nil, zaptest.NewLogger(t))
	db.On("GetByID", mock.Anything, int64(7)).Return(stored(), nil)

	_, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	_, err = repo.GetByID(context.Background(), 7)
	require.NoError(t, err)

	db.AssertNumberOfCalls(t, "GetByID", 2)
}

func TestGetByID_ConcurrentMissesShareRead(t *testing.T) {
	repo, db, _ := setup(t)
	db.On("GetByID", mock.Anything, int64(7)).
		After(50*time.Millisecond).
		Return(stored(), nil)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := repo.GetByID(context.Background(), 7)
			assert.NoError(t, err)
			assert.Equal(t, "Ada", u.FirstName)
		}()
	}
	wg.Wait()

	assert.Less(t, db.reads.Load(), int32(10))
}

func TestUpdate_InvalidatesCache(t *testing.T) {
	repo, db, mr := setup(t)
	db.On("GetByID", mock.Anything, int64(7)).Return(stored(), nil)

	_, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.Key(7)))

	name := "Augusta"
	patch := domain.Patch{FirstName: &name}
	db.On("Update", mock.Anything, int64(7), patch).Return(int64(1), nil)

	updated, err := repo.Update(context.Background(), 7, patch)

	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
	assert.False(t, mr.Exists(cache.Key(7)))
}

func TestUpdate_FailureKeepsCache(t *testing.T) {
	repo, db, mr := setup(t)
	db.On("GetByID", mock.Anything, int64(7)).Return(stored(), nil)
	_, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)

	email := "taken@example.com"
	patch := domain.Patch{Email: &email}
	db.On("Update", mock.Anything, int64(7), patch).Return(int64(0), domain.ErrEmailTaken)

	_, err = repo.Update(context.Background(), 7, patch)

	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.True(t, mr.Exists(cache.Key(7)))
}

func TestDelegates(t *testing.T) {
	repo, db, _ := setup(t)
	u := stored()
	db.On("Create", mock.Anything, u).Return(int64(7), nil)
	db.On("GetByEmail", mock.Anything, "ada@example.com").Return(u, nil)

	id, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	got, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

// gatedRepository snapshots the row on GetByID, then blocks until released,
// so a read can be held in flight across an update.
type gatedRepository struct {
	MockRepository
	mu      sync.Mutex
	row     domain.User
	entered chan struct{}
	release chan struct{}
}

func newGatedRepository(row domain.User) *gatedRepository {
	return &gatedRepository{row: row, entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gatedRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	g.mu.Lock()
	snapshot := g.row
	g.mu.Unlock()

	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (g *gatedRepository) Update(_ context.Context, id int64, patch domain.Patch) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.row = patch.Apply(g.row)
	return 1, nil
}

func TestGetByID_ReadInFlightDuringUpdateIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	log := zaptest.NewLogger(t)

	db := newGatedRepository(domain.User{ID: 7, Email: "old@example.com", PasswordHash: "oldhash"})
	repo := NewUserRepository(db, cache.NewRedisUserCache(client, time.Minute, log), log)

	done := make(chan *domain.User)
	go func() {
		u, err := repo.GetByID(context.Background(), 7)
		assert.NoError(t, err)
		done <- u
	}()
	<-db.entered

	email, hash := "new@example.com", "newhash"
	_, err := repo.Update(context.Background(), 7, domain.Patch{Email: &email, PasswordHash: &hash})
	require.NoError(t, err)

	close(db.release)
	stale := <-done
	assert.Equal(t, "old@example.com", stale.Email)

	u, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "newhash", u.PasswordHash)

	cached, err := repo.cache.Get(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "new@example.com", cached.Email)
}

func TestGetByID_SharedReadIgnoresCallerCancellation(t *testing.T) {
	db := newGatedRepository(*stored())
	repo := NewUserRepository(db, nil, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		_, err := repo.GetByID(ctx, 7)
		done <- err
	}()
	<-db.entered
	cancel()
	close(db.release)

	assert.NoError(t, <-done)
}
