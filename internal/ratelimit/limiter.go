// Package ratelimit bounds validation attempts per client with a fixed-window counter.
//
// A window opens on the first attempt of a client and lasts Window. Up to MaxAttempts attempts
// are admitted inside it; further attempts are rejected without being counted. Once the window
// has passed, the next attempt replaces the entry with a fresh count of one.
package ratelimit

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	Window      = 60 * time.Second
	MaxAttempts = 10

	keyPrefix = "validate_key:"
)

type Policy struct {
	Window      time.Duration
	MaxAttempts int
}

var DefaultPolicy = Policy{Window: Window, MaxAttempts: MaxAttempts}

type Decision struct {
	Allowed bool
	Count   int
	ResetAt time.Time
}

// RetryAfter is the time left in the window, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	left := d.ResetAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return (left + time.Second - 1).Truncate(time.Second)
}

// Limiter admits or rejects an attempt for a client key.
type Limiter interface {
	Admit(ctx context.Context, clientKey string) (Decision, error)
}

// ClientKey derives the limiter key from the forwarded client address. It is a best-effort
// identity: the headers are client controlled unless a trusted proxy overwrites them.
func ClientKey(r *http.Request) string {
	ip := ""
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
	} else if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		ip = strings.TrimSpace(realIP)
	}
	if ip == "" {
		ip = "unknown"
	}
	return keyPrefix + ip
}
