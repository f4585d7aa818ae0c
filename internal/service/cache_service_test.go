package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	appErrors "github.com/noah-isme/routine-planner-api/pkg/errors"
)

type cacheRepoMock struct {
	mock.Mock
}

func (m *cacheRepoMock) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *cacheRepoMock) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *cacheRepoMock) DeleteByPattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &cacheRepoMock{}
	svc := NewCacheService(repo, nil, 0, nil, false)

	var dest string
	assert.False(t, svc.Get(context.Background(), "k", &dest))
	svc.Set(context.Background(), "k", "v", 0)
	assert.NoError(t, svc.Invalidate(context.Background(), "*"))
	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestCacheServiceMissAndFailureAreMisses(t *testing.T) {
	repo := &cacheRepoMock{}
	repo.On("Get", mock.Anything, "miss", mock.Anything).Return(appErrors.ErrCacheMiss)
	repo.On("Get", mock.Anything, "broken", mock.Anything).Return(errors.New("connection refused"))
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)

	var dest string
	assert.False(t, svc.Get(context.Background(), "miss", &dest))
	assert.False(t, svc.Get(context.Background(), "broken", &dest))
}

func TestCacheServiceSetUsesDefaultTTL(t *testing.T) {
	repo := &cacheRepoMock{}
	repo.On("Set", mock.Anything, "k", "v", 5*time.Minute).Return(errors.New("read only replica"))
	svc := NewCacheService(repo, nil, 5*time.Minute, nil, true)

	svc.Set(context.Background(), "k", "v", 0)
	repo.AssertExpectations(t)
}

func TestCacheKeyIsStable(t *testing.T) {
	a := CacheKey("routines", "v1", "CSE110,MAT110")
	b := CacheKey("routines", "v1", "CSE110,MAT110")
	c := CacheKey("routines", "v2", "CSE110,MAT110")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "routines:")
}
