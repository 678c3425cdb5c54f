package session

import (
	"net/http"
	"strings"
	"time"
)

const (
	// CookieName is the single cookie carrying the signed session token.
	CookieName = "session"
	// DefaultTTL is the lifetime of every issued or renewed token.
	DefaultTTL = 24 * time.Hour
)

// Store reads and writes the session token for one request/response pair.
type Store interface {
	// Get returns the raw token from the request, if any.
	Get(r *http.Request) (string, bool)
	// Set issues a token for u expiring TTL from now and writes it to w.
	Set(w http.ResponseWriter, u User) (Payload, error)
	// Clear removes the session cookie.
	Clear(w http.ResponseWriter)
}

// CookieStore implements Store on top of a single HTTP cookie.
type CookieStore struct {
	signer Signer
	ttl    time.Duration
	now    func() time.Time
}

// NewCookieStore constructs a cookie-backed store. ttl <= 0 selects DefaultTTL.
func NewCookieStore(signer Signer, ttl time.Duration) *CookieStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CookieStore{signer: signer, ttl: ttl, now: time.Now}
}

// Get returns the trimmed cookie value when present and non-empty.
func (s *CookieStore) Get(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	c, err := r.Cookie(CookieName)
	if err != nil || c == nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	return v, v != ""
}

// Set signs a fresh payload for u and writes the cookie.
func (s *CookieStore) Set(w http.ResponseWriter, u User) (Payload, error) {
	p := Payload{User: u, Expires: s.now().Add(s.ttl).UTC().Truncate(time.Second)}
	token, err := s.signer.Sign(p)
	if err != nil {
		return Payload{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  p.Expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return p, nil
}

// Clear expires the session cookie.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
