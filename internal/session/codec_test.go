package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/family-office/internal/errs"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newTestCodec(t *testing.T) (*Codec, *fixedClock) {
	t.Helper()
	clk := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c, err := newCodec(testSecret, clk.now)
	require.NoError(t, err)
	return c, clk
}

func TestNewCodec_RejectsShortSecret(t *testing.T) {
	t.Parallel()
	_, err := NewCodec([]byte("short"))
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t)

	for _, p := range []Payload{
		{User: User{ID: "u-1", EmailVerified: true}, Expires: clk.t.Add(24 * time.Hour)},
		{User: User{ID: "9b2f6a0e-0000-4000-8000-000000000001"}, Expires: clk.t.Add(time.Second)},
	} {
		tok, err := c.Sign(p)
		require.NoError(t, err)

		got, err := c.Verify(tok)
		require.NoError(t, err)
		require.Equal(t, p.User, got.User)
		require.True(t, p.Expires.Equal(got.Expires), "expires %v != %v", got.Expires, p.Expires)
	}
}

func TestCodec_Sign_Validation(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t)

	_, err := c.Sign(Payload{Expires: clk.t.Add(time.Hour)})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = c.Sign(Payload{User: User{ID: "u"}})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestCodec_AnySingleCharMutationIsRejected(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t)

	tok, err := c.Sign(Payload{User: User{ID: "u-1", EmailVerified: true}, Expires: clk.t.Add(time.Hour)})
	require.NoError(t, err)

	for i := range tok {
		repl := byte('A')
		if tok[i] == 'A' {
			repl = 'B'
		}
		mutated := tok[:i] + string(repl) + tok[i+1:]
		_, err := c.Verify(mutated)
		require.ErrorIs(t, err, errs.ErrTokenInvalid, "mutation at %d accepted", i)
	}
}

func TestCodec_Verify_Rejects(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t)

	valid, err := c.Sign(Payload{User: User{ID: "u-1"}, Expires: clk.t.Add(time.Hour)})
	require.NoError(t, err)

	other, err := newCodec([]byte(strings.Repeat("z", MinSecretLen)), clk.now)
	require.NoError(t, err)
	foreign, err := other.Sign(Payload{User: User{ID: "u-1"}, Expires: clk.t.Add(time.Hour)})
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims{
		User:             User{ID: "u-1"},
		Expires:          clk.t.Add(time.Hour).Format(time.RFC3339),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clk.t.Add(time.Hour))},
	}).SignedString(testSecret)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Expires:          clk.t.Add(time.Hour).Format(time.RFC3339),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clk.t.Add(time.Hour))},
	}).SignedString(testSecret)
	require.NoError(t, err)

	mismatch, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		User:             User{ID: "u-1"},
		Expires:          clk.t.Add(48 * time.Hour).Format(time.RFC3339),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clk.t.Add(time.Hour))},
	}).SignedString(testSecret)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":         "",
		"blank":         "   ",
		"garbage":       "garbage",
		"two_segments":  "a.b",
		"foreign_key":   foreign,
		"wrong_alg":     hs512,
		"missing_user":  noUser,
		"exp_mismatch":  mismatch,
		"trailing_junk": valid + "x",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Verify(tok)
			require.ErrorIs(t, err, errs.ErrTokenInvalid)
		})
	}
}

func TestCodec_Verify_Expired(t *testing.T) {
	t.Parallel()
	c, clk := newTestCodec(t)

	tok, err := c.Sign(Payload{User: User{ID: "u-1"}, Expires: clk.t.Add(time.Minute)})
	require.NoError(t, err)

	_, err = c.Verify(tok)
	require.NoError(t, err)

	clk.t = clk.t.Add(2 * time.Minute)
	_, err = c.Verify(tok)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)
}
