package guard

import (
	"net/http"
	"strings"
)

// Rules describes which paths the guard protects, which it ignores, and
// where it sends users who fail a check.
type Rules struct {
	ProtectedPrefixes []string
	PublicPrefixes    []string
	SignInPath        string
	VerifyEmailPath   string
	// BypassParam marks internal partial-render fetches that skip every check.
	BypassParam string
}

// DefaultRules returns the production route table.
func DefaultRules() Rules {
	return Rules{
		ProtectedPrefixes: []string{"/dashboard"},
		PublicPrefixes:    []string{"/sign-in", "/sign-up", "/verify-email", "/verify-prompt"},
		SignInPath:        "/sign-in",
		VerifyEmailPath:   "/verify-email",
		BypassParam:       "_rsc",
	}
}

func (rl Rules) isBypass(r *http.Request) bool {
	if rl.BypassParam == "" || r.URL == nil {
		return false
	}
	return r.URL.Query().Has(rl.BypassParam)
}

func (rl Rules) isPublic(path string) bool {
	return matchesAny(path, rl.PublicPrefixes)
}

func (rl Rules) isProtected(path string) bool {
	return matchesAny(path, rl.ProtectedPrefixes)
}

// matchesAny reports whether path equals a prefix or lies below it.
// "/dashboard" matches "/dashboard" and "/dashboard/x", not "/dashboards".
func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
