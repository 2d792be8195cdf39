package session

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// DefaultRateInterval is the minimum spacing between accepted queries.
const DefaultRateInterval = time.Second

// RateLimiter suppresses queries arriving less than interval after the
// user's last accepted query. Suppressed queries do not move the window.
// At most maxUsers users are tracked; the least recently seen is forgotten.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	users    *lru.Cache[int64, *userWindow]
}

// userWindow pairs the token bucket with the exact time of the last accepted
// query. The bucket converts durations to float tokens and can refill a
// nanosecond early; last keeps the boundary exact.
type userWindow struct {
	lim  *rate.Limiter
	last time.Time
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(interval time.Duration, maxUsers int) (*RateLimiter, error) {
	if maxUsers <= 0 {
		maxUsers = 10000
	}
	users, err := lru.New[int64, *userWindow](maxUsers)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{interval: interval, users: users}, nil
}

// ShouldSuppress reports whether a query from userID at now must be dropped.
// An accepted query records now as the user's last accepted time.
func (l *RateLimiter) ShouldSuppress(userID int64, now time.Time) bool {
	if l.interval <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.users.Get(userID)
	if !ok {
		// One token refilled per interval.
		w = &userWindow{lim: rate.NewLimiter(rate.Every(l.interval), 1)}
		l.users.Add(userID, w)
	}
	if !w.last.IsZero() && now.Sub(w.last) < l.interval {
		return true
	}
	if !w.lim.AllowN(now, 1) {
		return true
	}
	w.last = now
	return false
}

func (l *RateLimiter) tracked() int {
	return l.users.Len()
}
