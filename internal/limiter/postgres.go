package limiter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG is a PostgreSQL-backed limiter with a sliding window and lockout.
type PG struct {
	q      Querier
	policy Policy
	now    func() time.Time
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(q Querier, p Policy) *PG {
	if p.MaxFails <= 0 {
		p = DefaultPolicy()
	}
	return &PG{q: q, policy: p, now: time.Now}
}

func normEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Allow reports whether a sign-in attempt may proceed.
func (l *PG) Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM signin_throttle WHERE email=$1 AND ip_hash=$2`
	var blockedUntil time.Time
	err := l.q.QueryRow(ctx, q, normEmail(email), ipHash).Scan(&blockedUntil)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	case err != nil:
		return false, 0, err
	}
	if wait := blockedUntil.Sub(l.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success forgets all failures for (email, ip).
func (l *PG) Success(ctx context.Context, email string, ipHash []byte) error {
	const q = `DELETE FROM signin_throttle WHERE email=$1 AND ip_hash=$2`
	_, err := l.q.Exec(ctx, q, normEmail(email), ipHash)
	return err
}

// Failure records a failed attempt and blocks once MaxFails is reached inside Window.
func (l *PG) Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO signin_throttle (email, ip_hash, fail_count, window_start, blocked_until)
VALUES ($1, $2, 1, now(), 'epoch')
ON CONFLICT (email, ip_hash) DO UPDATE
SET
  fail_count   = CASE WHEN now() - signin_throttle.window_start > $3::interval THEN 1 ELSE signin_throttle.fail_count + 1 END,
  window_start = CASE WHEN now() - signin_throttle.window_start > $3::interval THEN now() ELSE signin_throttle.window_start END
RETURNING fail_count`
	e := normEmail(email)
	var fails int
	if err := l.q.QueryRow(ctx, q, e, ipHash, l.policy.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.policy.MaxFails {
		return false, 0, nil
	}
	const upd = `UPDATE signin_throttle SET blocked_until=$3 WHERE email=$1 AND ip_hash=$2`
	if _, err := l.q.Exec(ctx, upd, e, ipHash, l.now().Add(l.policy.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.policy.BlockFor, nil
}
