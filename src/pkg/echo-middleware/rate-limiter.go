package echomw

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

/*
RateLimiter keeps one token bucket per client IP. Idle clients are swept
lazily on the next request, no background goroutines.
*/
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	rateLimit rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(requestsPerSecond, burst int, idle time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:   map[string]*client{},
		rateLimit: rate.Limit(requestsPerSecond),
		burst:     burst,
		idle:      idle,
		now:       time.Now,
	}
}

// NewRateLimiterFromConfig builds a limiter from Cfg.
func NewRateLimiterFromConfig() *RateLimiter {
	return NewRateLimiter(Cfg.MiddlewareRateLimit, Cfg.MiddlewareBurst, time.Duration(Cfg.LimiterIdleSeconds)*time.Second)
}

// Allow reports whether a request from ip may proceed now.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.idle > 0 && now.Sub(l.lastSweep) >= l.idle {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) >= l.idle {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	c, exists := l.clients[ip]
	if !exists {
		c = &client{limiter: rate.NewLimiter(l.rateLimit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *RateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Middleware rejects requests over the per-IP limit with 429.
func (l *RateLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !l.Allow(c.RealIP()) {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		}
		return next(c)
	}
}
