// Package session signs, verifies and transports the session token that
// identifies a user across stateless requests.
package session

import (
	"context"
	"time"
)

// User is the identity subset carried inside a session token.
type User struct {
	ID            string `json:"id"`
	EmailVerified bool   `json:"emailVerified"`
}

// Payload is the decoded content of a session token.
type Payload struct {
	User    User
	Expires time.Time // absolute, UTC, second precision
}

type payloadKey struct{}

// WithPayload stores a verified session payload in context.
func WithPayload(ctx context.Context, p Payload) context.Context {
	return context.WithValue(ctx, payloadKey{}, p)
}

// FromContext returns the verified session payload attached by the guard.
func FromContext(ctx context.Context) (Payload, bool) {
	if ctx == nil {
		return Payload{}, false
	}
	p, ok := ctx.Value(payloadKey{}).(Payload)
	return p, ok
}
