package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/and161185/family-office/internal/session"
)

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d", e.Status)
	}
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

// client talks JSON to the server and keeps the session cookie in dir.
type client struct {
	base string
	dir  string
	hc   *http.Client
}

func newClient(base, dir string) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		dir:  dir,
		hc: &http.Client{
			// redirects carry meaning (sign-in, verify-email); report them instead
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok, err := loadSession(c.dir); err == nil {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tok})
	} else if !errors.Is(err, errNotSignedIn) {
		return err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.keepCookie(resp); err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		e := &apiError{Status: resp.StatusCode}
		var eb struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&eb) == nil {
			e.Message = eb.Error
		}
		if loc := resp.Header.Get("Location"); e.Message == "" && loc != "" {
			e.Message = "redirected to " + loc
		}
		return e
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// keepCookie mirrors the server's Set-Cookie for the session into the local file.
func (c *client) keepCookie(resp *http.Response) error {
	var last *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName {
			last = ck
		}
	}
	switch {
	case last == nil:
		return nil
	case last.Value == "" || last.MaxAge < 0:
		return clearSession(c.dir)
	default:
		return saveSession(c.dir, last)
	}
}
