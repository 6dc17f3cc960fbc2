package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	limiter "github.com/ulule/limiter/v3"
)

// StoreLimiter is a fixed-window limiter on top of a ulule/limiter store. It is selected with
// RATE_LIMIT_STRATEGY=store.
type StoreLimiter struct {
	Store limiter.Store

	mu       sync.Mutex
	limiters map[string]*limiter.Limiter
}

// NewStoreLimiter wraps store.
func NewStoreLimiter(store limiter.Store) *StoreLimiter {
	return &StoreLimiter{Store: store, limiters: map[string]*limiter.Limiter{}}
}

func (s *StoreLimiter) limiterFor(window time.Duration, max int) *limiter.Limiter {
	id := fmt.Sprintf("%d/%s", max, window)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limiters == nil {
		s.limiters = map[string]*limiter.Limiter{}
	}
	if l, ok := s.limiters[id]; ok {
		return l
	}
	l := limiter.New(s.Store, limiter.Rate{Period: window, Limit: int64(max)})
	s.limiters[id] = l
	return l
}

// Allow implements Allower.
func (s *StoreLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if s == nil || s.Store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	res, err := s.limiterFor(window, max).Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !res.Reached, int(res.Remaining), time.Unix(res.Reset, 0), nil
}
