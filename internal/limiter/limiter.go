// Package limiter throttles sign-in attempts per (email, client address).
package limiter

import (
	"context"
	"crypto/sha256"
	"net"
	"strings"
	"time"
)

// Limiter controls sign-in attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether sign-in is currently allowed and, if not, for how long it is blocked.
	Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful sign-in.
	Success(ctx context.Context, email string, ipHash []byte) error
	// Failure records a failed attempt; it may place a temporary block.
	Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
}

// Policy configures the sliding window and lockout.
type Policy struct {
	Window   time.Duration // failures older than this start a new count
	MaxFails int           // failures within Window that trigger a block
	BlockFor time.Duration
}

// DefaultPolicy allows five failures per fifteen minutes.
func DefaultPolicy() Policy {
	return Policy{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}
}

// HashIP returns a stable hash of the client host. The port is dropped so
// reconnects from the same host share one bucket.
func HashIP(remoteAddr string) []byte {
	host := strings.TrimSpace(remoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	sum := sha256.Sum256([]byte(host))
	return sum[:]
}
