package services

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/elitereplicas/elite_api/dto"
	"github.com/elitereplicas/elite_api/shared"
	log "github.com/sirupsen/logrus"
)

// RateLimitPolicy is static configuration; it is never mutated at runtime.
type RateLimitPolicy struct {
	Name        string
	Window      time.Duration
	MaxRequests int
}

// UnknownKey is the shared bucket for callers without a usable identity.
// All anonymous callers deliberately land in one bucket.
const UnknownKey = "unknown"

// FixedWindowLimiter admits or denies requests per identity key using a lazy
// fixed-window counter: the window resets entirely at its boundary, with no
// carry-over and no sliding. Each policy owns an independent counter table.
// Check never fails; counter-store errors fail open.
type FixedWindowLimiter struct {
	policies map[string]RateLimitPolicy
	fallback string
	store    CounterStore
}

func NewFixedWindowLimiter(store CounterStore, fallback string, policies ...RateLimitPolicy) *FixedWindowLimiter {
	l := &FixedWindowLimiter{
		policies: make(map[string]RateLimitPolicy, len(policies)),
		fallback: fallback,
		store:    store,
	}
	for _, p := range policies {
		l.policies[p.Name] = p
	}
	return l
}

func (l *FixedWindowLimiter) Policy(name string) RateLimitPolicy {
	if p, ok := l.policies[name]; ok {
		return p
	}
	return l.policies[l.fallback]
}

func (l *FixedWindowLimiter) Policies() []RateLimitPolicy {
	out := make([]RateLimitPolicy, 0, len(l.policies))
	for _, p := range l.policies {
		out = append(out, p)
	}
	return out
}

// Check records one request for key under the named policy and decides whether
// it is admitted. The denying request itself is counted, so a client hammering
// past its quota keeps consuming budget. Unknown policy names fall back to the
// limiter's default policy.
func (l *FixedWindowLimiter) Check(ctx context.Context, key, policyName string) dto.RateLimitDecision {
	p := l.Policy(policyName)
	if key == "" {
		key = UnknownKey
	}

	count, resetAt, err := l.store.Incr(ctx, p.Name+":"+key, p.Window)
	if err != nil {
		// Advisory only: never block users because the counter backend is down.
		log.WithError(err).WithField("policy", p.Name).Warn("Rate limit store unavailable, failing open")
		return dto.RateLimitDecision{
			Allowed:   true,
			Limit:     p.MaxRequests,
			Remaining: p.MaxRequests,
			ResetAt:   ceilUnix(time.Now().Add(p.Window)),
		}
	}

	remaining := p.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}

	decision := dto.RateLimitDecision{
		Allowed:   count <= p.MaxRequests,
		Limit:     p.MaxRequests,
		Remaining: remaining,
		ResetAt:   ceilUnix(resetAt),
	}

	if decision.Allowed {
		rateLimitDecisionsTotal.WithLabelValues(p.Name, "allowed").Inc()
	} else {
		rateLimitDecisionsTotal.WithLabelValues(p.Name, "denied").Inc()
	}

	return decision
}

func ceilUnix(t time.Time) int64 {
	unix := t.Unix()
	if !t.Equal(time.Unix(unix, 0)) {
		unix++
	}
	return unix
}

// ==================== SERVICE ====================

type RateLimitService struct {
	appContext.DefaultService

	limiter *FixedWindowLimiter
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	var store CounterStore = NewMemoryCounterStore()

	// Per-node quotas by default; a shared Redis backend keeps them consistent
	// across nodes.
	if os.Getenv("RATE_LIMIT_BACKEND") == "redis" {
		redisSvc := svc.Service(REDIS_SVC).(*RedisService)
		store = NewRedisCounterStore(redisSvc.GetClient())
		log.Info("Rate limiter using shared Redis counter store")
	}

	svc.limiter = NewFixedWindowLimiter(store, shared.PolicyGeneral,
		RateLimitPolicy{Name: shared.PolicyGeneral, Window: 10 * time.Second, MaxRequests: 10},
		RateLimitPolicy{Name: shared.PolicyAuth, Window: 60 * time.Second, MaxRequests: 5},
	)

	return nil
}

func (svc *RateLimitService) Limiter() *FixedWindowLimiter {
	return svc.limiter
}

// ==================== MIDDLEWARE ====================

// Limit enforces the named policy keyed by the caller's network identity and
// attaches the standard X-RateLimit-* headers to every response.
func (svc *RateLimitService) Limit(policyName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := getClientIP(c)

		decision := svc.limiter.Check(c.UserContext(), key, policyName)

		for name, value := range decision.Headers() {
			c.Set(name, value)
		}

		if !decision.Allowed {
			return svc.handleRateLimitExceeded(c, policyName)
		}

		return c.Next()
	}
}

func (svc *RateLimitService) handleRateLimitExceeded(c *fiber.Ctx, policyName string) error {
	return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{
		"success": false,
		"message": rateLimitMessage(policyName),
	})
}

func rateLimitMessage(policyName string) string {
	if policyName == shared.PolicyAuth {
		return "Too many attempts. Please try again later."
	}
	return "Too many requests. Please slow down."
}

// ==================== ADMIN METHODS ====================

func (svc *RateLimitService) Stats(ctx context.Context) dto.RateLimitStatsResponse {
	policies := svc.limiter.Policies()

	infos := make([]dto.RateLimitPolicyInfo, len(policies))
	activeKeys := make(map[string]int, len(policies))
	for i, p := range policies {
		infos[i] = dto.RateLimitPolicyInfo{
			Name:        p.Name,
			WindowMs:    p.Window.Milliseconds(),
			MaxRequests: p.MaxRequests,
		}

		n, err := svc.limiter.store.ActiveKeys(ctx, p.Name+":")
		if err != nil {
			log.WithError(err).WithField("policy", p.Name).Warn("Failed to count active rate limit keys")
			n = -1
		}
		activeKeys[p.Name] = n
	}

	return dto.RateLimitStatsResponse{
		Policies:    infos,
		ActiveKeys:  activeKeys,
		GeneratedAt: time.Now().Unix(),
	}
}

func (svc *RateLimitService) ResetKey(ctx context.Context, policyName, key string) error {
	p := svc.limiter.Policy(policyName)
	return svc.limiter.store.Reset(ctx, p.Name+":"+key)
}

// ==================== UTILITY FUNCTIONS ====================

func getClientIP(c *fiber.Ctx) string {
	// Check for forwarded IP first (for load balancers/proxies)
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if ip != "" {
				return ip
			}
		}
	}

	realIP := c.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	if ip := c.IP(); ip != "" {
		return ip
	}

	return UnknownKey
}
