package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter throttles failed logins per client IP.
//
// Every IP gets a token bucket holding max failures that refills over window.
// A login calls Begin before verifying credentials. Begin holds one token for
// the attempt, and the finish func it returns either spends that token (the
// credentials were wrong) or gives it back, so a user who types the right
// password never spends anything.
//
// Held tokens count against the bucket while the password is being checked,
// so N concurrent attempts from one IP can never get past a bucket of fewer
// than N tokens.
type LoginLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	max     int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	pending  int // attempts holding a token
	lastSeen time.Time
}

// NewLoginLimiter creates a LoginLimiter that allows max failures per window.
// A max of zero or less disables limiting.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		buckets: make(map[string]*bucket),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

func (l *LoginLimiter) disabled() bool {
	return l == nil || l.max <= 0 || l.window <= 0
}

func noopFinish(bool) {}

// Begin reserves a login attempt for ip. It returns ok=false when ip has no
// tokens left. Otherwise the caller must call finish exactly once, with
// failed=true when the credentials were rejected.
func (l *LoginLimiter) Begin(ip string) (finish func(failed bool), ok bool) {
	if l.disabled() {
		return noopFinish, true
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)

	b, found := l.buckets[ip]
	if !found {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.max)), l.max)}
		l.buckets[ip] = b
	}
	b.lastSeen = now

	if b.limiter.TokensAt(now)-float64(b.pending) < 1 {
		return noopFinish, false
	}
	b.pending++

	var once sync.Once
	return func(failed bool) {
		once.Do(func() { l.finish(b, failed) })
	}, true
}

// finish releases the token held by an attempt on b, spending it when the
// attempt failed. prune never drops a bucket with pending attempts, so b is
// still the one in the map.
func (l *LoginLimiter) finish(b *bucket, failed bool) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b.pending--
	b.lastSeen = now
	if failed {
		b.limiter.AllowN(now, 1)
	}
}

// prune drops idle buckets with no attempt in progress. A bucket untouched
// for a full window has refilled and behaves exactly like a missing entry.
// Caller holds l.mu.
func (l *LoginLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	for ip, b := range l.buckets {
		if b.pending == 0 && b.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}

// tracked returns the number of IPs currently held in memory.
func (l *LoginLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
