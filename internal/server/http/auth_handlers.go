package httpserver

import (
	"errors"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/model"
	"github.com/and161185/family-office/internal/service"
	"github.com/and161185/family-office/internal/session"
)

type userView struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"emailVerified"`
	TeamID        string `json:"teamId,omitempty"`
}

func viewOf(u *model.User, t *model.Team) userView {
	v := userView{ID: u.ID.String(), Email: u.Email, Name: u.Name, EmailVerified: u.EmailVerified}
	if t != nil {
		v.TeamID = t.ID.String()
	}
	return v
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	TeamName string `json:"teamName,omitempty"`
}

// startSession writes the session cookie for u.
func (s *Server) startSession(w http.ResponseWriter, u *model.User) error {
	_, err := s.store.Set(w, session.User{ID: u.ID.String(), EmailVerified: u.EmailVerified})
	return err
}

// respondWithUser loads the user's team, starts a session and writes {user}.
func (s *Server) respondWithUser(w http.ResponseWriter, r *http.Request, status int, u *model.User) {
	_, team, err := s.auth.Profile(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.startSession(w, u); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, status, map[string]any{"user": viewOf(u, team)})
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	u, err := s.auth.SignUp(r.Context(), service.SignUpInput{
		Email: in.Email, Password: in.Password, Name: in.Name, TeamName: in.TeamName,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	s.respondWithUser(w, r, http.StatusCreated, u)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	u, err := s.auth.SignIn(r.Context(), in.Email, in.Password, r.RemoteAddr)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	s.respondWithUser(w, r, http.StatusOK, u)
}

func (s *Server) signOut(w http.ResponseWriter, _ *http.Request) {
	s.store.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// currentUserID returns the identity attached by the route guard.
func currentUserID(r *http.Request) (uuid.UUID, session.Payload, bool) {
	p, ok := session.FromContext(r.Context())
	if !ok {
		return uuid.Nil, session.Payload{}, false
	}
	id, err := uuid.FromString(p.User.ID)
	if err != nil {
		return uuid.Nil, session.Payload{}, false
	}
	return id, p, true
}

func (s *Server) sessionInfo(w http.ResponseWriter, r *http.Request) {
	id, _, ok := currentUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}
	u, team, err := s.auth.Profile(r.Context(), id)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		// account removed after the token was issued
		s.store.Clear(w)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	case err != nil:
		s.log.Error("session lookup", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"authenticated": false, "error": "internal"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user": viewOf(u, team)})
}

// verifyEmail is public: the guard attaches no identity here, so an existing
// session is read directly and re-issued with the verified flag.
func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.page("Your email address is not verified yet. Open the link we sent you.")(w, r)
		return
	}
	u, err := s.auth.VerifyEmail(r.Context(), token)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusUnauthorized {
			status, msg = http.StatusBadRequest, "verification link is invalid or expired"
		}
		if status == http.StatusInternalServerError {
			s.log.Error("verify email", zap.Error(err))
		}
		http.Error(w, msg, status)
		return
	}

	if raw, ok := s.store.Get(r); ok {
		if p, err := s.verif.Verify(raw); err == nil && p.User.ID == u.ID.String() {
			if err := s.startSession(w, u); err != nil {
				s.log.Warn("re-issue session", zap.Error(err))
			}
		}
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) resendVerification(w http.ResponseWriter, r *http.Request) {
	id, _, ok := currentUserID(r)
	if !ok {
		writeError(w, r, s.log, errs.ErrUnauthorized)
		return
	}
	if err := s.auth.ResendVerification(r.Context(), id); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
