package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/model"
	"github.com/and161185/family-office/internal/service"
	"github.com/and161185/family-office/internal/session"
)

type fakeAuth struct {
	users map[uuid.UUID]*model.User
	teams map[uuid.UUID]*model.Team

	signInErr  error
	profileErr error
	verifyTok  map[string]uuid.UUID
	resent     []uuid.UUID
	lastAddr   string
}

var _ service.AuthService = (*fakeAuth)(nil)

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[uuid.UUID]*model.User{}, teams: map[uuid.UUID]*model.Team{}, verifyTok: map[string]uuid.UUID{}}
}

func (f *fakeAuth) add(email string, verified bool) *model.User {
	u := &model.User{ID: uuid.Must(uuid.NewV4()), Email: email, Name: "N", EmailVerified: verified}
	f.users[u.ID] = u
	f.teams[u.ID] = &model.Team{ID: uuid.Must(uuid.NewV4()), Name: "T", OwnerID: u.ID}
	return u
}

func (f *fakeAuth) byEmail(email string) *model.User {
	for _, u := range f.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeAuth) SignUp(_ context.Context, in service.SignUpInput) (*model.User, error) {
	if in.Email == "" {
		return nil, errs.ErrValidation
	}
	if f.byEmail(in.Email) != nil {
		return nil, errs.ErrAlreadyExists
	}
	return f.add(in.Email, false), nil
}

func (f *fakeAuth) SignIn(_ context.Context, email, password, addr string) (*model.User, error) {
	f.lastAddr = addr
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	u := f.byEmail(email)
	if u == nil || password != "pw" {
		return nil, errs.ErrUnauthorized
	}
	return u, nil
}

func (f *fakeAuth) VerifyEmail(_ context.Context, token string) (*model.User, error) {
	id, ok := f.verifyTok[token]
	if !ok {
		return nil, errs.ErrTokenInvalid
	}
	f.users[id].EmailVerified = true
	c := *f.users[id]
	return &c, nil
}

func (f *fakeAuth) ResendVerification(_ context.Context, id uuid.UUID) error {
	f.resent = append(f.resent, id)
	return nil
}

func (f *fakeAuth) Profile(_ context.Context, id uuid.UUID) (*model.User, *model.Team, error) {
	if f.profileErr != nil {
		return nil, nil, f.profileErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil, errs.ErrNotFound
	}
	return u, f.teams[id], nil
}

func (f *fakeAuth) ProvisionExternal(_ context.Context, email, _ string, verified bool) (*model.User, error) {
	if u := f.byEmail(email); u != nil {
		if !verified {
			return nil, errs.ErrForbidden
		}
		return u, nil
	}
	return f.add(email, verified), nil
}

type fakeResources struct {
	created []service.Fields
	err     error
}

var _ service.ResourceService = (*fakeResources)(nil)

func (f *fakeResources) List(_ context.Context, a service.Actor, _ uuid.UUID, t model.ResourceType) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !t.Valid() {
		return nil, errs.ErrNotFound
	}
	return []model.Document{{Title: "Will", CreatedBy: a.UserID}}, nil
}

func (f *fakeResources) Create(_ context.Context, a service.Actor, teamID uuid.UUID, _ model.ResourceType, fl service.Fields) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !a.EmailVerified {
		return nil, errs.ErrEmailUnverified
	}
	f.created = append(f.created, fl)
	return &model.Document{Title: fl["title"], TeamID: teamID}, nil
}

func (f *fakeResources) Delete(context.Context, service.Actor, uuid.UUID, model.ResourceType, uuid.UUID) error {
	return f.err
}

func (f *fakeResources) Summary(_ context.Context, a service.Actor) (*model.TeamSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.TeamSummary{
		Team:   model.Team{ID: uuid.Must(uuid.NewV4()), Name: "Smiths", OwnerID: a.UserID},
		Counts: map[model.ResourceType]int64{model.ResourceDocuments: 1},
	}, nil
}

type fakeIdP struct {
	identity Identity
	err      error
	gotNonce string
	gotVerif string
}

func (f *fakeIdP) AuthCodeURL(state, nonce, verifier string) string {
	return "https://idp.example/authorize?state=" + state
}

func (f *fakeIdP) Exchange(_ context.Context, _, nonce, verifier string) (Identity, error) {
	f.gotNonce, f.gotVerif = nonce, verifier
	return f.identity, f.err
}

type fixture struct {
	t     *testing.T
	auth  *fakeAuth
	res   *fakeResources
	idp   *fakeIdP
	codec *session.Codec
	srv   *Server
	h     http.Handler
}

func newFixture(t *testing.T, withIdP bool) *fixture {
	t.Helper()
	codec, err := session.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	f := &fixture{t: t, auth: newFakeAuth(), res: &fakeResources{}, codec: codec}
	d := Deps{
		Auth:      f.auth,
		Resources: f.res,
		Store:     session.NewCookieStore(codec, session.DefaultTTL),
		Verifier:  codec,
		Log:       zaptest.NewLogger(t),
	}
	if withIdP {
		f.idp = &fakeIdP{}
		d.IdP = f.idp
	}
	f.srv = New(d)
	f.h = f.srv.Handler()
	return f
}

// cookieFor signs a session for u.
func (f *fixture) cookieFor(u *model.User) *http.Cookie {
	f.t.Helper()
	rec := httptest.NewRecorder()
	_, err := session.NewCookieStore(f.codec, session.DefaultTTL).
		Set(rec, session.User{ID: u.ID.String(), EmailVerified: u.EmailVerified})
	require.NoError(f.t, err)
	return rec.Result().Cookies()[0]
}

func (f *fixture) do(method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, rd)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, r)
	return w
}

// sessionCookie returns the last session cookie written, as a browser would apply it.
func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	var last *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			last = c
		}
	}
	return last
}
