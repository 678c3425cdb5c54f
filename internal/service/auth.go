// Package service contains application services for accounts and team resources.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/family-office/internal/crypto"
	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/limiter"
	"github.com/and161185/family-office/internal/model"
	"github.com/and161185/family-office/internal/repository"
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 8

// SignUpInput carries the fields of a new account.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
	TeamName string // defaults to "<name>'s family"
}

// AuthService defines account, sign-in and email verification operations.
type AuthService interface {
	// SignUp creates a user, their team and a pending email verification.
	SignUp(ctx context.Context, in SignUpInput) (*model.User, error)
	// SignIn applies throttling and checks the password.
	SignIn(ctx context.Context, email, password, remoteAddr string) (*model.User, error)
	// VerifyEmail consumes a verification token and marks the owner verified.
	VerifyEmail(ctx context.Context, token string) (*model.User, error)
	// ResendVerification issues a fresh verification token for an unverified user.
	ResendVerification(ctx context.Context, userID uuid.UUID) error
	// Profile returns the user and their primary team, which may be nil.
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, *model.Team, error)
	// ProvisionExternal finds or creates a user authenticated by an identity provider.
	ProvisionExternal(ctx context.Context, email, name string, emailVerified bool) (*model.User, error)
}

// AuthDeps groups AuthServiceImpl collaborators.
type AuthDeps struct {
	Users         repository.UserRepository
	Teams         repository.TeamRepository
	Verifications repository.VerificationRepository
	Limiter       limiter.Limiter
	Mailer        Mailer
	Log           *zap.Logger

	BaseURL   string        // used to build verification links
	VerifyTTL time.Duration // lifetime of verification tokens
}

type AuthServiceImpl struct {
	AuthDeps
	now func() time.Time
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(d AuthDeps) *AuthServiceImpl {
	if d.VerifyTTL <= 0 {
		d.VerifyTTL = 48 * time.Hour
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &AuthServiceImpl{AuthDeps: d, now: time.Now}
}

func normEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s {
		return "", fmt.Errorf("email %q: %w", s, errs.ErrValidation)
	}
	return s, nil
}

// SignUp validates input, stores the account and sends the verification link.
// A failed send is logged; the user can ask for another link.
func (s *AuthServiceImpl) SignUp(ctx context.Context, in SignUpInput) (*model.User, error) {
	email, err := normEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLen {
		return nil, fmt.Errorf("password shorter than %d: %w", MinPasswordLen, errs.ErrValidation)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	hash, err := pkgcrypto.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.createAccount(ctx, email, name, hash, false, in.TeamName)
	if err != nil {
		return nil, err
	}
	if err := s.issueVerification(ctx, u); err != nil {
		s.Log.Warn("verification not sent", zap.Stringer("user", u.ID), zap.Error(err))
	}
	return u, nil
}

func (s *AuthServiceImpl) createAccount(ctx context.Context, email, name, pwdHash string, verified bool, teamName string) (*model.User, error) {
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	tid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	if teamName = strings.TrimSpace(teamName); teamName == "" {
		teamName = name + "'s family"
	}
	u := &model.User{ID: uid, Email: email, Name: name, PwdHash: pwdHash, EmailVerified: verified}
	t := &model.Team{ID: tid, Name: teamName}
	if err := s.Users.CreateWithTeam(ctx, u, t); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthServiceImpl) issueVerification(ctx context.Context, u *model.User) error {
	token, hash, err := pkgcrypto.NewToken()
	if err != nil {
		return err
	}
	v := model.EmailVerification{TokenHash: hash, UserID: u.ID, ExpiresAt: s.now().Add(s.VerifyTTL)}
	if err := s.Verifications.Replace(ctx, v); err != nil {
		return err
	}
	link := strings.TrimRight(s.BaseURL, "/") + "/verify-email?token=" + url.QueryEscape(token)
	return s.Mailer.SendVerification(ctx, u.Email, link)
}

// SignIn authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password, remoteAddr string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errs.ErrUnauthorized
	}
	ipHash := limiter.HashIP(remoteAddr)

	allowed, _, err := s.Limiter.Allow(ctx, email, ipHash)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errs.ErrRateLimited
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	ok := false
	if err == nil && u.PwdHash != "" {
		ok, _ = pkgcrypto.VerifyPassword(password, u.PwdHash)
	}
	if !ok {
		// unknown user and wrong password look the same
		if blocked, _, ferr := s.Limiter.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return nil, errs.ErrRateLimited
		}
		return nil, errs.ErrUnauthorized
	}

	if err := s.Limiter.Success(ctx, email, ipHash); err != nil {
		s.Log.Warn("limiter reset failed", zap.Error(err))
	}
	return u, nil
}

// VerifyEmail marks the token owner verified. Unknown, reused and expired tokens yield ErrTokenInvalid.
func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, errs.ErrTokenInvalid
	}
	uid, err := s.Verifications.Consume(ctx, pkgcrypto.HashToken(token), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Users.MarkEmailVerified(ctx, uid); err != nil {
		return nil, err
	}
	return s.Users.GetByID(ctx, uid)
}

// ResendVerification replaces any pending token of the user and sends a new link.
func (s *AuthServiceImpl) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return fmt.Errorf("email already verified: %w", errs.ErrValidation)
	}
	return s.issueVerification(ctx, u)
}

// Profile loads the user and their primary team.
func (s *AuthServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (*model.User, *model.Team, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.Teams.PrimaryTeam(ctx, userID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return u, nil, nil
	case err != nil:
		return nil, nil, err
	}
	return u, t, nil
}

// ProvisionExternal links an identity provider account to a local user by email.
// An existing account is linked only when the provider reports the email as
// verified. New accounts are created without a password.
func (s *AuthServiceImpl) ProvisionExternal(ctx context.Context, email, name string, emailVerified bool) (*model.User, error) {
	email, err := normEmail(email)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !emailVerified {
			return nil, fmt.Errorf("%w: provider email not verified, sign in with your password", errs.ErrForbidden)
		}
		if !u.EmailVerified {
			if err := s.Users.MarkEmailVerified(ctx, u.ID); err != nil {
				return nil, err
			}
			u.EmailVerified = true
		}
		return u, nil
	case !errors.Is(err, errs.ErrNotFound):
		return nil, err
	}

	if name = strings.TrimSpace(name); name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	u, err = s.createAccount(ctx, email, name, "", emailVerified, "")
	if err != nil {
		return nil, err
	}
	if !emailVerified {
		if err := s.issueVerification(ctx, u); err != nil {
			s.Log.Warn("verification not sent", zap.Stringer("user", u.ID), zap.Error(err))
		}
	}
	return u, nil
}
