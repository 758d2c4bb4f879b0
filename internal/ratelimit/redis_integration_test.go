//go:build integration

package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"floodrelief/internal/ratelimit"
	"floodrelief/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *ratelimit.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = ratelimit.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestSlidingWindow() {
	ctx := context.Background()
	t0 := time.Now()

	for i := range 3 {
		res, err := s.store.Allow(ctx, "auth:10.0.0.1", 3, time.Minute, t0.Add(time.Duration(i)*time.Second))
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(2-i, res.Remaining)
	}

	res, err := s.store.Allow(ctx, "auth:10.0.0.1", 3, time.Minute, t0.Add(10*time.Second))
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.WithinDuration(t0.Add(time.Minute), res.ResetAt, time.Millisecond)

	res, err = s.store.Allow(ctx, "auth:10.0.0.1", 3, time.Minute, t0.Add(time.Minute+time.Millisecond))
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *RedisStoreSuite) TestConcurrentRequestsShareTheWindow() {
	ctx := context.Background()
	const goroutines = 10
	now := time.Now()

	var wg sync.WaitGroup
	var allowed atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.Allow(ctx, "auth:10.0.0.5", 100, time.Minute, now)
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(goroutines), allowed.Load())

	n, err := s.redis.Client.ZCard(ctx, "ratelimit:auth:10.0.0.5").Result()
	s.Require().NoError(err)
	s.Equal(int64(goroutines), n)
}
