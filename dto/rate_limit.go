package dto

import "strconv"

// RateLimitDecision is the outcome of a single rate-limit check. ResetAt is
// Unix seconds, ceiling-rounded so a client waiting until ResetAt always lands
// in a fresh window.
type RateLimitDecision struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetAt   int64 `json:"reset_at"`
}

// Headers returns the standard rate-limit response headers as decimal strings.
func (d RateLimitDecision) Headers() map[string]string {
	return map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(d.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(d.Remaining),
		"X-RateLimit-Reset":     strconv.FormatInt(d.ResetAt, 10),
	}
}

type RateLimitPolicyInfo struct {
	Name        string `json:"name"`
	WindowMs    int64  `json:"window_ms"`
	MaxRequests int    `json:"max_requests"`
}

type RateLimitStatsResponse struct {
	Policies    []RateLimitPolicyInfo `json:"policies"`
	ActiveKeys  map[string]int        `json:"active_keys"`
	GeneratedAt int64                 `json:"generated_at"`
}
