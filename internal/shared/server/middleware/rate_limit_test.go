package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitGroupsHaveSeparateBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	groupFor := func(c *gin.Context) string {
		if c.Request.Method == http.MethodGet && c.FullPath() == "/health" {
			return "HEALTH"
		}
		return "DEFAULT"
	}

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor:     groupFor,
		Limiter:      limiter,
		Rules: map[string]RateLimitRule{
			"DEFAULT": {Rate: 1, Burst: 2},
			"HEALTH": {Rate: 5, Burst: 10},
		},
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/analyze", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("health request %d expected 200, got %d", i+1, resp.Code)
		}
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("default request %d expected 200, got %d", i+1, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("default request 3 expected 429, got %d", resp.Code)
	}
}

func TestRateLimit429IncludesRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			return "DEFAULT"
		},
		Limiter: limiter,
		Rules: map[string]RateLimitRule{
			"DEFAULT": {Rate: 1, Burst: 1},
		},
	}))
	r.GET("/analyze", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req1 := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	resp1 := httptest.NewRecorder()
	r.ServeHTTP(resp1, req1)
	if resp1.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", resp1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	resp2 := httptest.NewRecorder()
	r.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp2.Code)
	}
	if resp2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	var payload map[string]any
	if err := json.NewDecoder(resp2.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != defaultRateLimitedMessage {
		t.Fatalf("expected error=%q, got %v", defaultRateLimitedMessage, payload["error"])
	}
	if _, ok := payload["retryAfterMs"]; !ok {
		t.Fatalf("expected retryAfterMs in response")
	}
}

func TestPerMinute(t *testing.T) {
	rule := PerMinute(10, 5)
	if rule.Burst != 5 {
		t.Fatalf("expected burst 5, got %d", rule.Burst)
	}
	if rule.Rate < 0.166 || rule.Rate > 0.167 {
		t.Fatalf("expected ~0.1667 tokens/s, got %f", rule.Rate)
	}
	if disabled := PerMinute(0, 5); disabled.Rate != 0 || disabled.Burst != 0 {
		t.Fatalf("expected disabled rule, got %+v", disabled)
	}
}

func TestRateLimitSeparatesClients(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	if ok, _ := limiter.Allow("10.0.0.1|DEFAULT", rule); !ok {
		t.Fatalf("expected first client allowed")
	}
	if ok, _ := limiter.Allow("10.0.0.2|DEFAULT", rule); !ok {
		t.Fatalf("expected second client allowed")
	}
	if ok, retry := limiter.Allow("10.0.0.1|DEFAULT", rule); ok || retry <= 0 {
		t.Fatalf("expected first client limited with retry, got ok=%v retry=%v", ok, retry)
	}
}

func TestRateLimitUsesConfiguredMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Limiter: NewRateLimiter(func() time.Time { return now }),
		Message: "The analysis service is busy right now.",
		Rules:   map[string]RateLimitRule{"DEFAULT": PerMinute(6, 1)},
	}))
	r.POST("/analyze", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if i == 0 {
			continue
		}
		if resp.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", resp.Code)
		}
		if got := resp.Header().Get("Retry-After"); got != "10" {
			t.Fatalf("expected Retry-After 10, got %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if payload["error"] != "The analysis service is busy right now." {
			t.Fatalf("unexpected error message %v", payload["error"])
		}
		if payload["retryAfterMs"] != float64(10000) {
			t.Fatalf("expected retryAfterMs 10000, got %v", payload["retryAfterMs"])
		}
	}
}

func TestRetryAfterValues(t *testing.T) {
	cases := []struct {
		wait    time.Duration
		ms, sec int
	}{
		{wait: 0, ms: 1000, sec: 1},
		{wait: 250 * time.Millisecond, ms: 250, sec: 1},
		{wait: 1500*time.Millisecond + time.Microsecond, ms: 1501, sec: 2},
	}
	for _, tc := range cases {
		ms, sec := retryAfterValues(tc.wait)
		if ms != tc.ms || sec != tc.sec {
			t.Fatalf("wait %v: expected %dms/%ds, got %dms/%ds", tc.wait, tc.ms, tc.sec, ms, sec)
		}
	}
}
