package httpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Identity is what the server needs from an external identity provider.
type Identity struct {
	Email         string
	Name          string
	EmailVerified bool
}

// IdentityProvider runs the authorization code flow against an external provider.
type IdentityProvider interface {
	// AuthCodeURL builds the provider redirect for the given state, nonce and PKCE verifier.
	AuthCodeURL(state, nonce, verifier string) string
	// Exchange redeems code and returns the verified identity; nonce must match the ID token.
	Exchange(ctx context.Context, code, nonce, verifier string) (Identity, error)
}

// OIDCProvider implements IdentityProvider with OpenID Connect discovery.
type OIDCProvider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewOIDCProvider discovers issuer and prepares a client that redirects to redirectURL.
func NewOIDCProvider(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &OIDCProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (p *OIDCProvider) AuthCodeURL(state, nonce, verifier string) string {
	return p.oauth.AuthCodeURL(state, oidc.Nonce(nonce), oauth2.S256ChallengeOption(verifier))
}

func (p *OIDCProvider) Exchange(ctx context.Context, code, nonce, verifier string) (Identity, error) {
	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Identity{}, fmt.Errorf("token exchange: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok {
		return Identity{}, errors.New("no id_token in token response")
	}
	idt, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("verify id_token: %w", err)
	}
	if idt.Nonce != nonce {
		return Identity{}, errors.New("nonce mismatch")
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idt.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("id_token claims: %w", err)
	}
	if claims.Email == "" {
		return Identity{}, errors.New("id_token has no email claim")
	}
	return Identity{Email: claims.Email, Name: claims.Name, EmailVerified: claims.EmailVerified}, nil
}
