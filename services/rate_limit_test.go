package services

import (
	"context"
	"errors"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/elitereplicas/elite_api/shared"
)

func testClock(start time.Time) (*time.Time, func() time.Time) {
	current := start
	return &current, func() time.Time { return current }
}

func newTestLimiter(now func() time.Time) *FixedWindowLimiter {
	store := NewMemoryCounterStore()
	store.now = now

	return NewFixedWindowLimiter(store, shared.PolicyGeneral,
		RateLimitPolicy{Name: shared.PolicyGeneral, Window: 10 * time.Second, MaxRequests: 10},
		RateLimitPolicy{Name: shared.PolicyAuth, Window: 60 * time.Second, MaxRequests: 5},
	)
}

func TestFixedWindowLimiter_AllowsUpToMax(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	limiter := newTestLimiter(now)

	for i := 1; i <= 10; i++ {
		d := limiter.Check(context.Background(), "1.2.3.4", shared.PolicyGeneral)
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if d.Remaining != 10-i {
			t.Fatalf("request %d: remaining = %d, want %d", i, d.Remaining, 10-i)
		}
	}

	d := limiter.Check(context.Background(), "1.2.3.4", shared.PolicyGeneral)
	if d.Allowed {
		t.Fatal("11th request in window should be denied")
	}
	if d.Remaining != 0 {
		t.Fatalf("remaining after denial = %d, want 0", d.Remaining)
	}
}

func TestFixedWindowLimiter_DeniedRequestsStillCount(t *testing.T) {
	clock, now := testClock(time.Unix(1_700_000_000, 0))
	limiter := newTestLimiter(now)

	for i := 0; i < 20; i++ {
		limiter.Check(context.Background(), "k", shared.PolicyAuth)
	}

	// Still inside the window, still denied.
	if d := limiter.Check(context.Background(), "k", shared.PolicyAuth); d.Allowed {
		t.Fatal("request should be denied while window is hot")
	}

	*clock = clock.Add(61 * time.Second)

	if d := limiter.Check(context.Background(), "k", shared.PolicyAuth); !d.Allowed {
		t.Fatal("request after window lapse should be allowed")
	}
}

func TestFixedWindowLimiter_WindowResetRestoresQuota(t *testing.T) {
	clock, now := testClock(time.Unix(1_700_000_000, 0))
	limiter := newTestLimiter(now)

	for i := 0; i < 10; i++ {
		limiter.Check(context.Background(), "a", shared.PolicyGeneral)
	}

	*clock = clock.Add(10 * time.Second)

	d := limiter.Check(context.Background(), "a", shared.PolicyGeneral)
	if !d.Allowed {
		t.Fatal("first request of the new window should be allowed")
	}
	if d.Remaining != 9 {
		t.Fatalf("remaining = %d, want 9", d.Remaining)
	}
}

func TestFixedWindowLimiter_KeysAreIndependent(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	limiter := newTestLimiter(now)

	for i := 0; i < 10; i++ {
		limiter.Check(context.Background(), "busy", shared.PolicyGeneral)
	}

	if d := limiter.Check(context.Background(), "busy", shared.PolicyGeneral); d.Allowed {
		t.Fatal("exhausted key should be denied")
	}
	if d := limiter.Check(context.Background(), "quiet", shared.PolicyGeneral); !d.Allowed {
		t.Fatal("other keys must not be affected")
	}
}

func TestFixedWindowLimiter_PoliciesAreIndependent(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	limiter := newTestLimiter(now)

	for i := 0; i < 5; i++ {
		limiter.Check(context.Background(), "ip", shared.PolicyAuth)
	}

	if d := limiter.Check(context.Background(), "ip", shared.PolicyAuth); d.Allowed {
		t.Fatal("auth policy should be exhausted")
	}
	if d := limiter.Check(context.Background(), "ip", shared.PolicyGeneral); !d.Allowed {
		t.Fatal("general policy should be untouched for the same key")
	}
}

func TestFixedWindowLimiter_UnknownPolicyFallsBack(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	limiter := newTestLimiter(now)

	d := limiter.Check(context.Background(), "x", "no-such-policy")
	if d.Limit != 10 {
		t.Fatalf("limit = %d, want the general policy's 10", d.Limit)
	}

	// The fallback shares its counters with the general policy.
	d = limiter.Check(context.Background(), "x", shared.PolicyGeneral)
	if d.Remaining != 8 {
		t.Fatalf("remaining = %d, want 8", d.Remaining)
	}
}

func TestFixedWindowLimiter_EmptyKeySharesUnknownBucket(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	limiter := newTestLimiter(now)

	limiter.Check(context.Background(), "", shared.PolicyGeneral)
	d := limiter.Check(context.Background(), UnknownKey, shared.PolicyGeneral)
	if d.Remaining != 8 {
		t.Fatalf("remaining = %d, want 8: empty keys should share one bucket", d.Remaining)
	}
}

func TestFixedWindowLimiter_ResetAtCeilingRounded(t *testing.T) {
	start := time.Unix(1_700_000_000, 500_000_000)
	_, now := testClock(start)
	limiter := newTestLimiter(now)

	d := limiter.Check(context.Background(), "r", shared.PolicyGeneral)

	// Window ends at 1_700_000_010.5; a client waiting until ResetAt must
	// land in a fresh window, so the second is rounded up.
	if d.ResetAt != 1_700_000_011 {
		t.Fatalf("resetAt = %d, want 1700000011", d.ResetAt)
	}
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("backend down")
}
func (failingStore) Reset(context.Context, string) error            { return errors.New("backend down") }
func (failingStore) ActiveKeys(context.Context, string) (int, error) { return 0, errors.New("backend down") }

func TestFixedWindowLimiter_FailsOpenOnStoreError(t *testing.T) {
	limiter := NewFixedWindowLimiter(failingStore{}, shared.PolicyGeneral,
		RateLimitPolicy{Name: shared.PolicyGeneral, Window: 10 * time.Second, MaxRequests: 10},
	)

	d := limiter.Check(context.Background(), "k", shared.PolicyGeneral)
	if !d.Allowed {
		t.Fatal("store errors must not block requests")
	}
	if d.Remaining != 10 {
		t.Fatalf("remaining = %d, want full quota on fail-open", d.Remaining)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := &RateLimitService{limiter: newTestLimiter(now)}

	app := fiber.New()
	app.Get("/login", svc.Limit(shared.PolicyAuth), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	for i := 1; i <= 5; i++ {
		req := httptest.NewRequest("GET", "/login", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("request %d: status = %d, want 200", i, resp.StatusCode)
		}
		if got := resp.Header.Get("X-RateLimit-Limit"); got != "5" {
			t.Fatalf("X-RateLimit-Limit = %q, want \"5\"", got)
		}
		if got := resp.Header.Get("X-RateLimit-Remaining"); got != strconv.Itoa(5-i) {
			t.Fatalf("request %d: X-RateLimit-Remaining = %q, want %q", i, got, strconv.Itoa(5-i))
		}
	}

	req := httptest.NewRequest("GET", "/login", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 429 {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if got := resp.Header.Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("X-RateLimit-Remaining = %q, want \"0\"", got)
	}
	if got := resp.Header.Get("X-RateLimit-Reset"); got == "" {
		t.Fatal("X-RateLimit-Reset header missing on denial")
	}
}

func TestRateLimitMiddleware_ForwardedForKeying(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := &RateLimitService{limiter: newTestLimiter(now)}

	app := fiber.New()
	app.Get("/", svc.Limit(shared.PolicyAuth), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	exhaust := func(ip string) {
		for i := 0; i < 5; i++ {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
			if _, err := app.Test(req); err != nil {
				t.Fatal(err)
			}
		}
	}

	exhaust("203.0.113.9")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	resp, _ := app.Test(req)
	if resp.StatusCode != 429 {
		t.Fatalf("status = %d, want 429 for exhausted forwarded IP", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	resp, _ = app.Test(req)
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200 for a different forwarded IP", resp.StatusCode)
	}
}

func TestRateLimitService_Stats(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := &RateLimitService{limiter: newTestLimiter(now)}

	svc.limiter.Check(context.Background(), "a", shared.PolicyGeneral)
	svc.limiter.Check(context.Background(), "b", shared.PolicyGeneral)
	svc.limiter.Check(context.Background(), "a", shared.PolicyAuth)

	stats := svc.Stats(context.Background())
	if len(stats.Policies) != 2 {
		t.Fatalf("policies = %d, want 2", len(stats.Policies))
	}
	if stats.ActiveKeys[shared.PolicyGeneral] != 2 {
		t.Fatalf("general active keys = %d, want 2", stats.ActiveKeys[shared.PolicyGeneral])
	}
	if stats.ActiveKeys[shared.PolicyAuth] != 1 {
		t.Fatalf("auth active keys = %d, want 1", stats.ActiveKeys[shared.PolicyAuth])
	}
}

func TestRateLimitService_ResetKey(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := &RateLimitService{limiter: newTestLimiter(now)}

	for i := 0; i < 5; i++ {
		svc.limiter.Check(context.Background(), "victim", shared.PolicyAuth)
	}
	if d := svc.limiter.Check(context.Background(), "victim", shared.PolicyAuth); d.Allowed {
		t.Fatal("key should be exhausted before reset")
	}

	if err := svc.ResetKey(context.Background(), shared.PolicyAuth, "victim"); err != nil {
		t.Fatal(err)
	}

	if d := svc.limiter.Check(context.Background(), "victim", shared.PolicyAuth); !d.Allowed {
		t.Fatal("key should have full quota after reset")
	}
}
