package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"callcoach-backend/internal/shared/apperr"
)

var rateLimitSignals = []string{
	"rate limit",
	"rate_limit",
	"ratelimit",
	"tokens per minute",
	"request too large",
	"too many requests",
	"resource_exhausted",
	"resource exhausted",
}

// Statuses that name a caller or configuration fault. Their message text is
// never read as a rate limit signal.
var nonRetryableStatuses = map[int]struct{}{
	http.StatusBadRequest:   {},
	http.StatusUnauthorized: {},
	http.StatusForbidden:    {},
	http.StatusNotFound:     {},
}

// Classify maps a raw provider failure onto the fixed taxonomy. It is the
// only place that inspects status codes and message text.
func Classify(providerID string, err error) *apperr.Error {
	if err == nil {
		return nil
	}
	if classified, ok := apperr.As(err); ok {
		if classified.Provider == "" && providerID != "" {
			copied := *classified
			copied.Provider = providerID
			return &copied
		}
		return classified
	}
	if errors.Is(err, ErrEmptyResponse) {
		return apperr.Provider(providerID, "empty_response", err)
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusRequestEntityTooLarge:
			return apperr.RateLimited(providerID, "provider rate limited", err)
		}
		if _, ok := nonRetryableStatuses[httpErr.StatusCode]; ok {
			return apperr.Provider(providerID, "provider rejected request", err)
		}
	}
	if IsRateLimitMessage(err.Error()) {
		return apperr.RateLimited(providerID, "provider rate limited", err)
	}

	if errors.Is(err, context.Canceled) {
		return apperr.UpstreamUnavailable(providerID, "request canceled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.UpstreamUnavailable(providerID, "provider timeout", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.UpstreamUnavailable(providerID, "provider unreachable", err)
	}

	return apperr.Provider(providerID, "provider call failed", err)
}

// IsRateLimitMessage reports whether msg carries one of the quota/size
// exhaustion signals used by the supported providers.
func IsRateLimitMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, signal := range rateLimitSignals {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}
