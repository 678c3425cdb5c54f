package httpserver

import (
	"crypto/subtle"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	pkgcrypto "github.com/and161185/family-office/internal/crypto"
)

const (
	stateCookie    = "oidc_state"
	nonceCookie    = "oidc_nonce"
	verifierCookie = "oidc_verifier"
	flowTTL        = 10 * time.Minute
)

var flowCookies = []string{stateCookie, nonceCookie, verifierCookie}

func setFlowCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/sign-in/oidc",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) oidcStart(w http.ResponseWriter, r *http.Request) {
	if s.idp == nil {
		http.NotFound(w, r)
		return
	}
	state, _, err := pkgcrypto.NewToken()
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	nonce, _, err := pkgcrypto.NewToken()
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	verifier := oauth2.GenerateVerifier()

	age := int(flowTTL / time.Second)
	setFlowCookie(w, stateCookie, state, age)
	setFlowCookie(w, nonceCookie, nonce, age)
	setFlowCookie(w, verifierCookie, verifier, age)
	http.Redirect(w, r, s.idp.AuthCodeURL(state, nonce, verifier), http.StatusFound)
}

func (s *Server) oidcCallback(w http.ResponseWriter, r *http.Request) {
	if s.idp == nil {
		http.NotFound(w, r)
		return
	}
	values := make(map[string]string, len(flowCookies))
	for _, name := range flowCookies {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			http.Error(w, "sign-in flow expired, start again", http.StatusBadRequest)
			return
		}
		values[name] = c.Value
		setFlowCookie(w, name, "", -1)
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		http.Error(w, "authorization failed: "+e, http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(values[stateCookie])) != 1 {
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing code parameter", http.StatusBadRequest)
		return
	}

	id, err := s.idp.Exchange(r.Context(), code, values[nonceCookie], values[verifierCookie])
	if err != nil {
		s.log.Info("oidc exchange failed", zap.Error(err))
		http.Error(w, "identity provider sign-in failed", http.StatusUnauthorized)
		return
	}
	u, err := s.auth.ProvisionExternal(r.Context(), id.Email, id.Name, id.EmailVerified)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	if err := s.startSession(w, u); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	target := "/dashboard"
	if !u.EmailVerified {
		target = "/verify-prompt"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
