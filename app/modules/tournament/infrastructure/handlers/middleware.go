package tournamenthandlers

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/abacus-tab/abacus/pkg/jwt"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is the duration after which an idle IP entry is eligible for cleanup.
	maxIdleAge = 10 * time.Minute
)

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is an IP-based rate limiter that prunes stale entries inline.
type IPRateLimiter struct {
	ips map[string]*ipEntry
	mu  sync.Mutex
	r   rate.Limit
	b   int
	now func() time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*ipEntry),
		r:   r,
		b:   b,
		now: time.Now,
	}
}

// GetLimiter returns the limiter for ip, pruning stale entries when the
// map exceeds cleanupThreshold.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if len(i.ips) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for k, e := range i.ips {
			if e.lastSeen.Before(cutoff) {
				delete(i.ips, k)
			}
		}
	}

	e, exists := i.ips[ip]
	if !exists {
		e = &ipEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimitMiddleware rejects requests beyond the per-IP budget with 429.
func RateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiter.GetLimiter(ip).Allow() {
				writeStatus(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type claimsKey struct{}

// ClaimsFrom returns the bearer claims stored by AuthMiddleware.
func ClaimsFrom(ctx context.Context) (*jwt.TabClaims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*jwt.TabClaims)
	return c, ok
}

// AuthMiddleware requires a valid bearer token. Missing or invalid tokens
// are rejected with 401.
func AuthMiddleware(tokens jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || raw == "" {
				writeStatus(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := tokens.ValidateToken(raw)
			if err != nil {
				writeStatus(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// Require admits callers whose role grants p on the tournament in the
// route. Superusers may act on any tournament.
func Require(p jwt.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				writeStatus(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			role := jwt.Role(claims.Role)
			if !role.Can(p) {
				writeStatus(w, http.StatusForbidden, "role "+claims.Role+" may not "+string(p))
				return
			}
			if tid := chi.URLParam(r, "tournamentID"); role != jwt.RoleSuperuser && tid != "" && tid != claims.Tournament {
				writeStatus(w, http.StatusForbidden, "token is not valid for this tournament")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
