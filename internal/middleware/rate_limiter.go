package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/apierror"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Credential endpoints ──────────────────────────────────────────────────────

// CredentialRateLimiter throttles login and password-reset endpoints to
// perSecond requests per client IP (token bucket, burst 5).
func CredentialRateLimiter(perSecond float64) gin.HandlerFunc {
	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetBurst(5)
	lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	return func(c *gin.Context) {
		if httpErr := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); httpErr != nil {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many attempts, try again in a moment"))
			return
		}
		c.Next()
	}
}

// ── General API limiter ───────────────────────────────────────────────────────

type windowEntry struct {
	count     int
	windowEnd time.Time
}

// windowLimiter counts requests per IP in fixed windows.
type windowLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	limit   int
	window  time.Duration
}

// allow records one request and reports whether it is within the limit,
// plus the end of the current window.
func (l *windowLimiter) allow(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

func (l *windowLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	purged := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	return purged
}

// RateLimiter allows limit requests per window per IP. Expired entries are
// purged every five minutes until ctx is cancelled.
func RateLimiter(ctx context.Context, limit int, window time.Duration) gin.HandlerFunc {
	l := &windowLimiter{entries: make(map[string]*windowEntry), limit: limit, window: window}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := l.purge(now); n > 0 {
					log.Debug().Int("purged", n).Msg("rate limiter entries purged")
				}
			}
		}
	}()

	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, try again shortly"))
			return
		}
		c.Next()
	}
}
