// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/transport layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication (bad credentials or no session).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated user acting outside their team.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates a temporary sign-in lock.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("validation")

	// ErrTokenInvalid covers missing, malformed, tampered and expired session or verification tokens.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrEmailUnverified indicates an action that requires a verified email address.
	ErrEmailUnverified = errors.New("email unverified")
)
