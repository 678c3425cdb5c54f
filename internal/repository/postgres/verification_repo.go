package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/model"
)

// VerificationRepo implements repository.VerificationRepository.
type VerificationRepo struct{ db *DB }

// NewVerificationRepo constructs an email verification repository.
func NewVerificationRepo(db *DB) *VerificationRepo { return &VerificationRepo{db: db} }

// Replace drops any pending tokens for the user and stores v.
func (r *VerificationRepo) Replace(ctx context.Context, v model.EmailVerification) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM email_verifications WHERE user_id=$1`, v.UserID); err != nil {
			return err
		}
		const ins = `INSERT INTO email_verifications (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`
		_, err := tx.Exec(ctx, ins, v.TokenHash, v.UserID, v.ExpiresAt)
		return err
	})
}

// Consume deletes the token. Expired tokens are deleted too but reported as invalid.
func (r *VerificationRepo) Consume(ctx context.Context, tokenHash []byte, now time.Time) (uuid.UUID, error) {
	const q = `DELETE FROM email_verifications WHERE token_hash=$1 RETURNING user_id, expires_at`
	var (
		userID  uuid.UUID
		expires time.Time
	)
	if err := r.db.Pool.QueryRow(ctx, q, tokenHash).Scan(&userID, &expires); err != nil {
		if err = mapErr(err); errors.Is(err, errs.ErrNotFound) {
			return uuid.Nil, errs.ErrTokenInvalid
		}
		return uuid.Nil, err
	}
	if !now.Before(expires) {
		return uuid.Nil, errs.ErrTokenInvalid
	}
	return userID, nil
}
