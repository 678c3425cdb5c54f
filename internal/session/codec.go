package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/family-office/internal/errs"
)

// MinSecretLen is the minimum HS256 secret length accepted by NewCodec.
const MinSecretLen = 32

// Signer produces signed session tokens.
type Signer interface {
	Sign(p Payload) (string, error)
}

// Verifier decodes and checks signed session tokens.
type Verifier interface {
	Verify(token string) (Payload, error)
}

type claims struct {
	User    User   `json:"user"`
	Expires string `json:"expires"`
	jwt.RegisteredClaims
}

// Codec is an HS256 JWT implementation of Signer and Verifier.
type Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// NewCodec constructs a codec for the given secret.
func NewCodec(secret []byte) (*Codec, error) {
	return newCodec(secret, time.Now)
}

func newCodec(secret []byte, now func() time.Time) (*Codec, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("%w: session secret must be at least %d bytes", errs.ErrValidation, MinSecretLen)
	}
	c := &Codec{secret: append([]byte(nil), secret...), now: now}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	return c, nil
}

// Sign serializes p and signs it. Expires is normalized to UTC seconds.
func (c *Codec) Sign(p Payload) (string, error) {
	if p.User.ID == "" {
		return "", fmt.Errorf("%w: empty user id", errs.ErrValidation)
	}
	if p.Expires.IsZero() {
		return "", fmt.Errorf("%w: zero expiry", errs.ErrValidation)
	}
	exp := p.Expires.UTC().Truncate(time.Second)
	cl := claims{
		User:    p.User,
		Expires: exp.Format(time.RFC3339),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
}

// Verify returns the payload of a well-formed, correctly signed, unexpired token.
// Every failure wraps errs.ErrTokenInvalid.
func (c *Codec) Verify(token string) (Payload, error) {
	if strings.TrimSpace(token) == "" {
		return Payload{}, fmt.Errorf("%w: empty", errs.ErrTokenInvalid)
	}
	var cl claims
	if _, err := c.parser.ParseWithClaims(token, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", errs.ErrTokenInvalid, err)
	}
	if cl.User.ID == "" {
		return Payload{}, fmt.Errorf("%w: missing user id", errs.ErrTokenInvalid)
	}
	exp, err := time.Parse(time.RFC3339, cl.Expires)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: expires: %w", errs.ErrTokenInvalid, err)
	}
	if cl.ExpiresAt == nil || !cl.ExpiresAt.Time.Equal(exp) {
		return Payload{}, fmt.Errorf("%w: %w", errs.ErrTokenInvalid, errors.New("expires/exp mismatch"))
	}
	return Payload{User: cl.User, Expires: exp.UTC()}, nil
}
