package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/family-office/internal/session"
)

func withTmpConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FO_CONFIG_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "family-office")
}

func Test_cfgDir_Precedence(t *testing.T) {
	base := withTmpConfig(t)
	require.Equal(t, base, cfgDir())

	t.Setenv("FO_CONFIG_DIR", "/tmp/fo-explicit")
	require.Equal(t, "/tmp/fo-explicit", cfgDir())

	require.Equal(t, filepath.Join(base, "session.json"), sessionPath(base))
}

func Test_session_SaveLoadClear(t *testing.T) {
	dir := withTmpConfig(t)

	_, err := loadSession(dir)
	require.ErrorIs(t, err, errNotSignedIn)

	require.NoError(t, saveSession(dir, &http.Cookie{Value: "tok", Expires: time.Now().Add(time.Minute)}))
	tok, err := loadSession(dir)
	require.NoError(t, err)
	require.Equal(t, "tok", tok)

	fi, err := os.Stat(sessionPath(dir))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	require.NoError(t, saveSession(dir, &http.Cookie{Value: "old", Expires: time.Now().Add(-time.Minute)}))
	_, err = loadSession(dir)
	require.ErrorIs(t, err, errNotSignedIn)

	require.NoError(t, clearSession(dir))
	require.NoError(t, clearSession(dir))
}

// fakeAPI imitates the handful of endpoints the CLI talks to.
type fakeAPI struct {
	t       *testing.T
	created []map[string]string
	path    string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	setCookie := func(w http.ResponseWriter, v string, maxAge int) {
		http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: v, Path: "/", MaxAge: maxAge, Expires: time.Now().Add(time.Hour)})
	}
	authed := func(r *http.Request) bool {
		c, err := r.Cookie(session.CookieName)
		return err == nil && c.Value == "tok-1"
	}
	mux.HandleFunc("POST /api/auth/sign-in", func(w http.ResponseWriter, r *http.Request) {
		var in credentials
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		if in.Password != "hunter22" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		setCookie(w, "tok-1", 3600)
		_, _ = w.Write([]byte(`{"user":{"id":"u-1","email":"` + in.Email + `","teamId":"team-1"}}`))
	})
	mux.HandleFunc("POST /api/auth/sign-out", func(w http.ResponseWriter, _ *http.Request) {
		setCookie(w, "", -1)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"authenticated":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"authenticated":true,"user":{"id":"u-1","teamId":"team-1"}}`))
	})
	mux.HandleFunc("GET /api/teams/{team}/{type}", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"d-1","title":"Passport"}]}`))
	})
	mux.HandleFunc("POST /api/teams/{team}/{type}", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var in map[string]string
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		f.created = append(f.created, in)
		f.path = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"new-1"}`))
	})
	return mux
}

func runCLI(t *testing.T, srv, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--server", srv, "--config-dir", dir}, args...)
	err := run(context.Background(), full, &out, &errOut)
	return out.String(), err
}

func Test_run_UsageAndVersion(t *testing.T) {
	dir := withTmpConfig(t)

	_, err := runCLI(t, "http://unused", dir)
	require.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, "http://unused", dir, "frobnicate")
	require.ErrorIs(t, err, errUsage)

	out, err := runCLI(t, "http://unused", dir, "version")
	require.NoError(t, err)
	require.Contains(t, out, "fo dev")

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--help"}, &buf, &buf))
}

func Test_run_SignInSessionSignOut(t *testing.T) {
	dir := withTmpConfig(t)
	api := &fakeAPI{t: t}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	_, err := runCLI(t, srv.URL, dir, "sign-in", "--email", "a@b.c")
	require.Error(t, err)

	_, err = runCLI(t, srv.URL, dir, "sign-in", "--email", "a@b.c", "--password", "wrong-pass")
	var ae *apiError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, http.StatusUnauthorized, ae.Status)
	require.Equal(t, "unauthorized", ae.Message)

	out, err := runCLI(t, srv.URL, dir, "sign-in", "--email", "a@b.c", "--password", "hunter22")
	require.NoError(t, err)
	require.Contains(t, out, "team-1")
	tok, err := loadSession(dir)
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)

	out, err = runCLI(t, srv.URL, dir, "session")
	require.NoError(t, err)
	require.Contains(t, out, `"authenticated": true`)

	out, err = runCLI(t, srv.URL, dir, "list", "documents")
	require.NoError(t, err)
	require.Contains(t, out, "Passport")

	_, err = runCLI(t, srv.URL, dir, "list", "recipes")
	require.Error(t, err)

	_, err = runCLI(t, srv.URL, dir, "sign-out")
	require.NoError(t, err)
	_, err = loadSession(dir)
	require.ErrorIs(t, err, errNotSignedIn)

	out, err = runCLI(t, srv.URL, dir, "session")
	require.NoError(t, err)
	require.Contains(t, out, `"authenticated": false`)

	_, err = runCLI(t, srv.URL, dir, "list", "documents")
	require.ErrorIs(t, err, errNotSignedIn)
}

func Test_parsePairs(t *testing.T) {
	got, err := parsePairs([]string{"title=Passport", " category =ids", "notes=a=b"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"title": "Passport", "category": "ids", "notes": "a=b"}, got)

	_, err = parsePairs([]string{"novalue"})
	require.Error(t, err)
	_, err = parsePairs([]string{"=x"})
	require.Error(t, err)
}

func Test_formFields(t *testing.T) {
	got := formFields(map[string]any{"title": "x", "amount": 12.5, "skip": nil, "n": 3})
	require.Equal(t, "x", got["title"])
	require.Equal(t, "12.5", got["amount"])
	require.Equal(t, "3", got["n"])
	_, ok := got["skip"]
	require.False(t, ok)
}
