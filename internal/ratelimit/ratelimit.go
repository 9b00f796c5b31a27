// Package ratelimit counts failed anonymous access attempts per client.
package ratelimit

import (
	"context"
	"time"
)

// Config bounds failures within a fixed window. MaxFailures <= 0 disables
// limiting.
type Config struct {
	MaxFailures int
	Window      time.Duration
}

// FailureLimiter tracks failures for a key, such as a client IP.
type FailureLimiter interface {
	// Blocked reports whether the key has used up its failures for the window.
	Blocked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
