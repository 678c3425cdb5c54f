// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/and161185/family-office/internal/session"
)

// Config holds every server setting.
type Config struct {
	Addr            string        `env:"FO_ADDR" envDefault:":8080"`
	DatabaseURL     string        `env:"FO_DATABASE_URL,required"`
	SessionSecret   string        `env:"FO_SESSION_SECRET,required,unset"`
	Dev             bool          `env:"FO_DEV" envDefault:"false"`
	BaseURL         string        `env:"FO_BASE_URL" envDefault:"http://localhost:8080"`
	ShutdownTimeout time.Duration `env:"FO_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	SignInWindow   time.Duration `env:"FO_SIGNIN_WINDOW" envDefault:"15m"`
	SignInMaxFails int           `env:"FO_SIGNIN_MAX_FAILS" envDefault:"5"`
	SignInBlockFor time.Duration `env:"FO_SIGNIN_BLOCK_FOR" envDefault:"15m"`
	VerifyTTL      time.Duration `env:"FO_VERIFY_TTL" envDefault:"48h"`

	OIDC OIDC
}

// OIDC configures sign-in through an external identity provider.
type OIDC struct {
	Issuer       string `env:"FO_OIDC_ISSUER"`
	ClientID     string `env:"FO_OIDC_CLIENT_ID"`
	ClientSecret string `env:"FO_OIDC_CLIENT_SECRET,unset"`
}

// Enabled reports whether all provider settings are present.
func (o OIDC) Enabled() bool {
	return o.Issuer != "" && o.ClientID != "" && o.ClientSecret != ""
}

// Load reads the process environment.
func Load() (Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	var problems []error
	if len(c.SessionSecret) < session.MinSecretLen {
		problems = append(problems, fmt.Errorf("FO_SESSION_SECRET must be at least %d bytes", session.MinSecretLen))
	}
	if c.SignInMaxFails <= 0 || c.SignInWindow <= 0 || c.SignInBlockFor <= 0 {
		problems = append(problems, errors.New("sign-in throttling settings must be positive"))
	}
	if c.VerifyTTL <= 0 {
		problems = append(problems, errors.New("FO_VERIFY_TTL must be positive"))
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Errorf("FO_BASE_URL %q is not an absolute URL", c.BaseURL))
	}
	set := 0
	for _, v := range []string{c.OIDC.Issuer, c.OIDC.ClientID, c.OIDC.ClientSecret} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		problems = append(problems, errors.New("FO_OIDC_ISSUER, FO_OIDC_CLIENT_ID and FO_OIDC_CLIENT_SECRET must be set together"))
	}
	return errors.Join(problems...)
}
