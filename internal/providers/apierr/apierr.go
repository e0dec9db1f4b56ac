// Package apierr holds error types shared by the external provider clients.
package apierr

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError reports that a provider rejected a call for quota reasons.
// Wait carries the provider's suggested delay; the retry executor prefers it
// over its computed backoff.
type RateLimitError struct {
	Service string
	Wait    time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Service, e.Wait)
	}
	return fmt.Sprintf("%s: rate limited", e.Service)
}

// RetryAfter returns the provider-suggested wait.
func (e *RateLimitError) RetryAfter() time.Duration {
	return e.Wait
}

// ParseRetryAfter reads the Retry-After response header, accepting both the
// delta-seconds and HTTP-date forms. It returns 0 when the header is absent
// or unparseable.
func ParseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
