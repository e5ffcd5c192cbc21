package bucket

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type InMemoryBucketStoreSuite struct {
	suite.Suite
	clock *fakeClock
	store *InMemoryBucketStore
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.clock = &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s.store = NewInMemoryBucketStore(WithClock(s.clock.Now))
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "ip:identify:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.clock.Now().Add(testWindow), result.ResetAt)
	})

	s.Run("request over limit denied", func() {
		for range testLimit {
			result, err := s.store.Allow(s.ctx, "ip:identify:over", testLimit, testWindow)
			require.NoError(s.T(), err)
			s.True(result.Allowed)
		}
		result, err := s.store.Allow(s.ctx, "ip:identify:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(testLimit, result.Limit)
	})

	s.Run("keys are independent", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "ip:identify:a", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "ip:identify:b", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestWindowSlides() {
	key := "ip:identify:slide"
	_, err := s.store.Allow(s.ctx, key, 2, testWindow)
	s.Require().NoError(err)
	s.clock.Advance(30 * time.Second)
	_, err = s.store.Allow(s.ctx, key, 2, testWindow)
	s.Require().NoError(err)

	denied, err := s.store.Allow(s.ctx, key, 2, testWindow)
	s.Require().NoError(err)
	s.False(denied.Allowed)
	s.Equal(s.clock.Now().Add(30*time.Second), denied.ResetAt, "reset follows the oldest request")

	s.clock.Advance(31 * time.Second)
	result, err := s.store.Allow(s.ctx, key, 2, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed, "first request has left the window")
	s.Equal(0, result.Remaining)
}

func (s *InMemoryBucketStoreSuite) TestSweep() {
	_, err := s.store.Allow(s.ctx, "ip:identify:old", testLimit, testWindow)
	s.Require().NoError(err)
	s.clock.Advance(2 * testWindow)
	_, err = s.store.Allow(s.ctx, "ip:identify:new", testLimit, testWindow)
	s.Require().NoError(err)

	s.Equal(1, s.store.Sweep())
	s.Len(s.store.buckets, 1)
}

func (s *InMemoryBucketStoreSuite) TestConcurrentAccess() {
	var wg sync.WaitGroup
	allowed := make(chan bool, 100)
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "ip:identify:shared", testLimit, testWindow)
			s.NoError(err, fmt.Sprintf("request %d", i))
			allowed <- result.Allowed
		}(i)
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	s.Equal(testLimit, count)
}
