// Package httpserver exposes the family office over HTTP.
package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/family-office/internal/guard"
	"github.com/and161185/family-office/internal/service"
	"github.com/and161185/family-office/internal/session"
)

// Deps groups the collaborators of Server.
type Deps struct {
	Auth      service.AuthService
	Resources service.ResourceService
	Store     session.Store
	Verifier  session.Verifier
	IdP       IdentityProvider // nil disables external sign-in
	Log       *zap.Logger
}

// Server holds handlers and their dependencies.
type Server struct {
	auth  service.AuthService
	res   service.ResourceService
	store session.Store
	verif session.Verifier
	idp   IdentityProvider
	guard *guard.Guard
	log   *zap.Logger
	mux   *http.ServeMux
}

// New wires routes and the route guard.
func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	s := &Server{
		auth:  d.Auth,
		res:   d.Resources,
		store: d.Store,
		verif: d.Verifier,
		idp:   d.IdP,
		guard: guard.New(d.Store, d.Verifier, guard.DefaultRules(), d.Log),
		log:   d.Log,
		mux:   http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// pages
	s.mux.HandleFunc("GET /sign-in", s.page("Sign in: POST /api/auth/sign-in {email, password}"))
	s.mux.HandleFunc("GET /sign-up", s.page("Sign up: POST /api/auth/sign-up {email, password, name, teamName}"))
	s.mux.HandleFunc("GET /verify-prompt", s.page("Check your inbox for a verification link."))
	s.mux.HandleFunc("GET /verify-email", s.verifyEmail)
	s.mux.HandleFunc("GET /dashboard", s.dashboard)
	s.mux.HandleFunc("GET /dashboard/{section}", s.dashboard)

	// external identity provider
	s.mux.HandleFunc("GET /sign-in/oidc", s.oidcStart)
	s.mux.HandleFunc("GET /sign-in/oidc/callback", s.oidcCallback)

	// auth API
	s.mux.HandleFunc("POST /api/auth/sign-up", s.signUp)
	s.mux.HandleFunc("POST /api/auth/sign-in", s.signIn)
	s.mux.HandleFunc("POST /api/auth/sign-out", s.signOut)
	s.mux.HandleFunc("GET /api/auth/session", s.sessionInfo)
	s.mux.HandleFunc("POST /api/auth/verify-email/resend", s.resendVerification)

	// team resources
	s.mux.HandleFunc("GET /api/teams/{teamID}/{type}", s.listResources)
	s.mux.HandleFunc("POST /api/teams/{teamID}/{type}", s.createResource)
	s.mux.HandleFunc("DELETE /api/teams/{teamID}/{type}/{id}", s.deleteResource)

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// Handler returns the full middleware chain: logging, recover, route guard, routes.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.guard.Middleware(h)
	h = Recover(s.log)(h)
	h = Logging(s.log)(h)
	return h
}

func (s *Server) page(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(text + "\n"))
	}
}
