// Package guard implements the route guard that every HTTP request passes through.
//
// Verification failures never fail a request. A token that cannot be verified
// or renewed is cleared and the request continues as anonymous, so the worst
// outcome for the user is having to sign in again.
package guard

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/session"
)

// State is the guard's classification of a single request.
type State int

const (
	StateBypass State = iota
	StatePublic
	StateUnguarded
	StateProtectedNoSession
	StateInvalidSession
	StateUnverifiedEmail
	StateValidSession
	StateReadOnlySession
)

func (s State) String() string {
	switch s {
	case StateBypass:
		return "bypass"
	case StatePublic:
		return "public"
	case StateUnguarded:
		return "unguarded"
	case StateProtectedNoSession:
		return "protected_no_session"
	case StateInvalidSession:
		return "invalid_session"
	case StateUnverifiedEmail:
		return "unverified_email"
	case StateValidSession:
		return "valid_session"
	case StateReadOnlySession:
		return "read_only_session"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Guard classifies requests, enforces redirects and renews sessions.
type Guard struct {
	store    session.Store
	verifier session.Verifier
	rules    Rules
	log      *zap.Logger
}

// New constructs a guard.
func New(store session.Store, verifier session.Verifier, rules Rules, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{store: store, verifier: verifier, rules: rules, log: log}
}

// Middleware wraps next with the guard.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := g.serve(w, r, next)
		g.log.Debug("guard",
			zap.String("state", st.String()),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
	})
}

func (g *Guard) serve(w http.ResponseWriter, r *http.Request, next http.Handler) State {
	if g.rules.isBypass(r) {
		next.ServeHTTP(w, r)
		return StateBypass
	}
	path := r.URL.Path
	if g.rules.isPublic(path) {
		next.ServeHTTP(w, r)
		return StatePublic
	}

	protected := g.rules.isProtected(path)
	token, ok := g.store.Get(r)
	if !ok {
		if protected {
			http.Redirect(w, r, g.rules.SignInPath, http.StatusSeeOther)
			return StateProtectedNoSession
		}
		next.ServeHTTP(w, r)
		return StateUnguarded
	}

	p, err := g.verify(token)

	// Only GET renews or clears the cookie. Other methods get the identity
	// attached when the token verifies and otherwise run anonymous.
	if r.Method != http.MethodGet {
		if err != nil {
			next.ServeHTTP(w, r)
			return StateUnguarded
		}
		if protected && !p.User.EmailVerified {
			http.Redirect(w, r, g.rules.VerifyEmailPath, http.StatusSeeOther)
			return StateUnverifiedEmail
		}
		next.ServeHTTP(w, r.WithContext(session.WithPayload(r.Context(), p)))
		return StateReadOnlySession
	}

	if err != nil {
		g.log.Info("session rejected", zap.String("path", path), zap.Error(err))
		g.store.Clear(w)
		next.ServeHTTP(w, r)
		return StateInvalidSession
	}

	if protected && !p.User.EmailVerified {
		http.Redirect(w, r, g.rules.VerifyEmailPath, http.StatusSeeOther)
		return StateUnverifiedEmail
	}

	renewed, err := g.renew(w, p.User)
	if err != nil {
		g.log.Warn("session renewal failed", zap.String("user", p.User.ID), zap.Error(err))
		g.store.Clear(w)
		next.ServeHTTP(w, r)
		return StateInvalidSession
	}
	next.ServeHTTP(w, r.WithContext(session.WithPayload(r.Context(), renewed)))
	return StateValidSession
}

// verify maps every failure, panics included, to errs.ErrTokenInvalid.
func (g *Guard) verify(token string) (p session.Payload, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: verifier panic: %v", errs.ErrTokenInvalid, rec)
		}
	}()
	p, err = g.verifier.Verify(token)
	if err != nil {
		return session.Payload{}, fmt.Errorf("%w: %w", errs.ErrTokenInvalid, err)
	}
	return p, nil
}

func (g *Guard) renew(w http.ResponseWriter, u session.User) (p session.Payload, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("session renewal panic: %v", rec)
		}
	}()
	return g.store.Set(w, u)
}
