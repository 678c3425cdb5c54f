package postgres

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/model"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, email, name, pwd_hash, email_verified, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PwdHash, &u.EmailVerified, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// CreateWithTeam inserts the user, their team and the owner membership in one transaction.
func (r *UserRepo) CreateWithTeam(ctx context.Context, u *model.User, t *model.Team) error {
	return mapErr(r.db.inTx(ctx, func(tx pgx.Tx) error {
		const insUser = `
INSERT INTO users (id, email, name, pwd_hash, email_verified)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`
		if err := tx.QueryRow(ctx, insUser, u.ID, strings.ToLower(u.Email), u.Name, u.PwdHash, u.EmailVerified).
			Scan(&u.CreatedAt); err != nil {
			return err
		}
		const insTeam = `
INSERT INTO teams (id, name, owner_id)
VALUES ($1, $2, $3)
RETURNING created_at`
		if err := tx.QueryRow(ctx, insTeam, t.ID, t.Name, u.ID).Scan(&t.CreatedAt); err != nil {
			return err
		}
		t.OwnerID = u.ID
		const insMember = `INSERT INTO team_members (team_id, user_id, role) VALUES ($1, $2, 'owner')`
		_, err := tx.Exec(ctx, insMember, t.ID, u.ID)
		return err
	}))
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

// GetByEmail selects a user by email, case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, strings.ToLower(strings.TrimSpace(email))))
}

// MarkEmailVerified sets email_verified for the user.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET email_verified = true WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
