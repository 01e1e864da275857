package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"shoecare/internal/config"

	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a client's bucket survives without traffic.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// rateLimiter keeps one token bucket per client. Authenticated clients are keyed
// by user id, anonymous ones by remote host. Idle buckets are swept on the way.
type rateLimiter struct {
	limiters  sync.Map // map[string]*clientLimiter
	cfg       config.APIRateLimitConfig
	now       func() time.Time
	lastSweep atomic.Int64
}

func newRateLimiter(cfg config.APIRateLimitConfig) *rateLimiter {
	l := &rateLimiter{
		cfg: cfg,
		now: time.Now,
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

func (l *rateLimiter) enabled() bool {
	return l != nil && l.cfg.RPS > 0
}

func (l *rateLimiter) allow(r *http.Request) bool {
	if !l.enabled() {
		return true
	}
	now := l.now()
	l.maybeSweep(now)
	return l.getLimiter(clientKey(r), now).AllowN(now, 1)
}

func (l *rateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if cl, ok := v.(*clientLimiter); ok {
			cl.lastSeen.Store(now.UnixNano())
			return cl.lim
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	cl := &clientLimiter{lim: rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)}
	cl.lastSeen.Store(now.UnixNano())
	actual, loaded := l.limiters.LoadOrStore(key, cl)
	if loaded {
		if existing, ok := actual.(*clientLimiter); ok {
			existing.lastSeen.Store(now.UnixNano())
			return existing.lim
		}
	}
	return cl.lim
}

// maybeSweep runs sweep at most once per limiterIdleTTL.
func (l *rateLimiter) maybeSweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(limiterIdleTTL) {
		return
	}
	if l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		l.sweep(now)
	}
}

// sweep drops buckets that have been idle for limiterIdleTTL and returns how many.
func (l *rateLimiter) sweep(now time.Time) int {
	cutoff := now.Add(-limiterIdleTTL).UnixNano()
	removed := 0
	l.limiters.Range(func(key, v any) bool {
		if cl, ok := v.(*clientLimiter); !ok || cl.lastSeen.Load() <= cutoff {
			l.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func clientKey(r *http.Request) string {
	if st := requestAuthFrom(r.Context()); st != nil && st.identity != nil {
		return "user:" + strconv.FormatInt(st.identity.UserID, 10)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return "ip:" + host
	}
	return "unknown"
}
