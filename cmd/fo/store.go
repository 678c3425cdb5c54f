package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

var errNotSignedIn = errors.New("not signed in (run: fo sign-in)")

// sessionFile is the locally kept copy of the server's session cookie.
type sessionFile struct {
	Cookie  string    `json:"cookie"`
	Expires time.Time `json:"expires"`
}

func cfgDir() string {
	if v := os.Getenv("FO_CONFIG_DIR"); v != "" {
		return v
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "family-office")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "family-office")
}

func sessionPath(dir string) string { return filepath.Join(dir, "session.json") }

func saveSession(dir string, c *http.Cookie) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(sessionFile{Cookie: c.Value, Expires: c.Expires}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(dir), b, 0o600)
}

// loadSession returns the stored cookie value, or errNotSignedIn when there is
// none or it has expired.
func loadSession(dir string) (string, error) {
	b, err := os.ReadFile(sessionPath(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return "", errNotSignedIn
	}
	if err != nil {
		return "", err
	}
	var sf sessionFile
	if err := json.Unmarshal(b, &sf); err != nil || sf.Cookie == "" {
		return "", errNotSignedIn
	}
	if !sf.Expires.IsZero() && time.Now().After(sf.Expires) {
		return "", errNotSignedIn
	}
	return sf.Cookie, nil
}

func clearSession(dir string) error {
	err := os.Remove(sessionPath(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
